package actions

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/treeprof/treeprof/internal/errorutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry()

	id := r.Register("READ")
	if got := r.Register("READ"); got != id {
		t.Fatalf("re-registering READ: got id %d, want %d", got, id)
	}
	if got := r.Register("WRITE"); got == id {
		t.Fatalf("registering WRITE: got the id of READ (%d)", got)
	}
	if got, want := r.Len(), 2; got != want {
		t.Fatalf("registry length: got %d, want %d", got, want)
	}
}

func TestNameOf(t *testing.T) {
	r := NewRegistry()
	id := r.Register("READ")

	name, err := r.NameOf(id)
	if err != nil {
		t.Fatalf("NameOf(%d): unexpected error %v", id, err)
	}
	if name != "READ" {
		t.Fatalf("NameOf(%d): got %q, want %q", id, name, "READ")
	}

	for _, unknown := range []ActionID{NoAction, 42} {
		_, err := r.NameOf(unknown)
		if !errors.Is(err, errorutil.ErrNotFound) {
			t.Fatalf("NameOf(%d): got %v, want ErrNotFound", unknown, err)
		}
	}
}

func TestContains(t *testing.T) {
	r := NewRegistry()
	id := r.Register("READ")

	if !r.Contains(id) {
		t.Fatalf("Contains(%d): got false, want true", id)
	}
	if r.Contains(NoAction) {
		t.Fatal("Contains(NoAction): got true, want false")
	}
	if r.Contains(1) {
		t.Fatal("Contains(1): got true, want false")
	}
}

func TestConcurrentRegister(t *testing.T) {
	r := NewRegistry()
	names := make([]string, 16)
	for i := range names {
		names[i] = fmt.Sprintf("ACTION_%02d", i)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, name := range names {
				r.Register(name)
			}
		}()
	}
	wg.Wait()

	if got, want := r.Len(), len(names); got != want {
		t.Fatalf("registry length after concurrent registration: got %d, want %d", got, want)
	}
	for _, name := range names {
		id := r.Register(name)
		resolved, err := r.NameOf(id)
		if err != nil {
			t.Fatalf("NameOf(%d): unexpected error %v", id, err)
		}
		if resolved != name {
			t.Fatalf("NameOf(%d): got %q, want %q", id, resolved, name)
		}
	}
}
