package main

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/treeprof/treeprof/internal/profiler"
)

type workload struct {
	Action     string     `json:"action"`
	DurationMS int64      `json:"duration_ms"`
	Actions    []workload `json:"actions"`
}

// postSimulate executes a nested workload description under instrumentation.
// It exists to generate realistic traces against a running daemon without
// wiring the profiler into another service first.
func (e *environment) postSimulate(w http.ResponseWriter, r *http.Request) {
	var body workload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		e.logger.Err(err).Msg("error decoding workload")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	rec := recorderFromContext(r.Context())
	if rec == nil {
		// Recording is inactive, run the workload untraced.
		body.run(nil, nil)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	body.run(e.profiler, rec)
	w.WriteHeader(http.StatusNoContent)
}

func (wl workload) run(p *profiler.Profiler, rec *profiler.Recorder) {
	if rec != nil {
		guard := rec.StartGuard(p.DefineAction(wl.Action))
		defer guard.Stop()
	}
	if wl.DurationMS > 0 {
		time.Sleep(time.Duration(wl.DurationMS) * time.Millisecond)
	}
	for _, child := range wl.Actions {
		child.run(p, rec)
	}
}
