// Package profiler is the instrumentation surface. A Profiler carries the
// action registry and the activation gate; a Recorder traces one execution,
// validating start/stop pairing and feeding the recorded tree to the
// aggregation manager.
//
// Nothing here is ambient: callers hold the Profiler explicitly and thread
// Recorders through the code they instrument.
package profiler

import (
	"fmt"
	"sync"

	"github.com/treeprof/treeprof/internal/actions"
	"github.com/treeprof/treeprof/internal/errorutil"
)

var errAlreadyInactive = fmt.Errorf("profiler: %w: deactivate without matching activate", errorutil.ErrDataIntegrity)

// Profiler gates recording for a group of recorders sharing one registry.
type Profiler struct {
	registry *actions.Registry

	mu    sync.Mutex
	depth int
}

// New returns an inactive profiler. Call Activate to start recording.
func New(registry *actions.Registry) *Profiler {
	return &Profiler{registry: registry}
}

// Registry returns the action registry the profiler resolves names against.
func (p *Profiler) Registry() *actions.Registry {
	return p.registry
}

// DefineAction registers name and returns its action id. Defining the same
// name twice yields the same id.
func (p *Profiler) DefineAction(name string) actions.ActionID {
	return p.registry.Register(name)
}

// Activate enables recording. Activation nests: two Activate calls need two
// Deactivate calls before recording stops.
func (p *Profiler) Activate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.depth++
}

// Deactivate undoes one Activate. Deactivating an inactive profiler is an
// error and leaves it inactive.
func (p *Profiler) Deactivate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.depth == 0 {
		return errAlreadyInactive
	}
	p.depth--
	return nil
}

// Active reports whether recording is enabled.
func (p *Profiler) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.depth > 0
}
