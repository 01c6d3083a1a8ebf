package profiler

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/treeprof/treeprof/internal/actions"
	"github.com/treeprof/treeprof/internal/aggregator"
	"github.com/treeprof/treeprof/internal/calltree"
	"github.com/treeprof/treeprof/internal/errorutil"
)

var (
	errUnknownAction  = fmt.Errorf("profiler: %w: action was never registered", errorutil.ErrNotFound)
	errMismatchedStop = fmt.Errorf("profiler: %w: stop does not match the innermost open action", errorutil.ErrDataIntegrity)
	errNoOpenAction   = fmt.Errorf("profiler: %w: stop with no open action", errorutil.ErrDataIntegrity)
	errAlreadyDone    = fmt.Errorf("profiler: %w: recorder was already submitted", errorutil.ErrDataIntegrity)
)

// Recorder traces one execution. It is built by exactly one goroutine; the
// guarded tree underneath allows other goroutines to Snapshot it while the
// recording is still in flight.
//
// Recording errors are reported to the log and returned, but never stop the
// instrumented code: the erroneous call is skipped and the trace degrades
// instead of failing the caller.
type Recorder struct {
	id       uuid.UUID
	profiler *Profiler
	tree     *calltree.ConcurrentTree
	stack    []calltree.NodeIndex
	clock    func() int64
	logger   zerolog.Logger
	done     bool
}

// NewRecorder starts recording a new execution.
func (p *Profiler) NewRecorder() *Recorder {
	id := uuid.New()
	return &Recorder{
		id:       id,
		profiler: p,
		tree:     calltree.NewConcurrentTree(p.registry),
		clock:    func() int64 { return time.Now().UnixNano() },
		logger:   log.With().Str("trace_id", id.String()).Logger(),
	}
}

// ID returns the recorder's trace id, used to correlate log lines with
// submitted trees.
func (r *Recorder) ID() uuid.UUID {
	return r.id
}

// Depth returns the number of currently open actions.
func (r *Recorder) Depth() int {
	return len(r.stack)
}

// StartAction opens a call to action nested under the innermost open action.
// While the profiler is inactive this is a silent no-op.
func (r *Recorder) StartAction(action actions.ActionID) error {
	if !r.profiler.Active() || r.done {
		return nil
	}
	if !r.profiler.registry.Contains(action) {
		r.logger.Error().Int("action_id", int(action)).Msg("start of unregistered action skipped")
		return errUnknownAction
	}
	r.tree.Lock()
	defer r.tree.Unlock()
	tree := r.tree.Tree()
	parent := tree.Root()
	if len(r.stack) > 0 {
		parent = r.stack[len(r.stack)-1]
	}
	r.stack = append(r.stack, tree.StartAction(parent, action, r.clock()))
	return nil
}

// StopAction closes the innermost open action, which must be a call to
// action. A mismatched stop is reported and ignored: the open action stays
// open. While the profiler is inactive this is a silent no-op.
func (r *Recorder) StopAction(action actions.ActionID) error {
	if !r.profiler.Active() || r.done {
		return nil
	}
	if !r.profiler.registry.Contains(action) {
		r.logger.Error().Int("action_id", int(action)).Msg("stop of unregistered action skipped")
		return errUnknownAction
	}
	if len(r.stack) == 0 {
		r.logger.Error().Str("action", r.actionName(action)).Msg("stop with no open action skipped")
		return errNoOpenAction
	}
	r.tree.Lock()
	defer r.tree.Unlock()
	tree := r.tree.Tree()
	node := r.stack[len(r.stack)-1]
	if open := tree.ActionOf(node); open != action {
		r.logger.Error().
			Str("open_action", r.actionName(open)).
			Str("stopped_action", r.actionName(action)).
			Msg("mismatched stop skipped, open action stays open")
		return errMismatchedStop
	}
	tree.StopAction(node, r.clock())
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

// StartGuard opens a call to action and returns a guard whose Stop closes
// it. Stop is idempotent and safe to defer, so the call is closed on every
// exit path.
func (r *Recorder) StartGuard(action actions.ActionID) *ActionGuard {
	err := r.StartAction(action)
	return &ActionGuard{recorder: r, action: action, stopped: err != nil}
}

// Snapshot returns a consistent deep copy of the tree recorded so far.
func (r *Recorder) Snapshot() *calltree.RecordedTree {
	return r.tree.Snapshot()
}

// Submit finalizes the recording and hands the tree to m. Any still-open
// action is reported as a warning; its duration will be counted as zero.
// After Submit the recorder is done and every further call is a no-op.
func (r *Recorder) Submit(m *aggregator.Manager) error {
	if r.done {
		return errAlreadyDone
	}
	r.done = true
	r.tree.Lock()
	tree := r.tree.Tree()
	for i := len(r.stack) - 1; i >= 0; i-- {
		r.logger.Warn().
			Str("action", r.actionName(tree.ActionOf(r.stack[i]))).
			Msg("action never stopped before submit")
	}
	r.stack = nil
	r.tree.Unlock()
	m.AddTree(r.tree)
	return nil
}

func (r *Recorder) actionName(action actions.ActionID) string {
	name, err := r.profiler.registry.NameOf(action)
	if err != nil {
		return fmt.Sprintf("unknown(%d)", action)
	}
	return name
}

// ActionGuard closes an open action exactly once.
type ActionGuard struct {
	recorder *Recorder
	action   actions.ActionID
	stopped  bool
}

// Stop closes the guarded action. Calling Stop more than once is harmless.
func (g *ActionGuard) Stop() {
	if g.stopped {
		return
	}
	g.stopped = true
	_ = g.recorder.StopAction(g.action)
}
