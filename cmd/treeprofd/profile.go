package main

import (
	"net/http"

	"github.com/treeprof/treeprof/internal/httputil"
)

func (e *environment) getProfileTotal(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, e.manager.TotalSnapshot())
}

func (e *environment) getProfileLast(w http.ResponseWriter, _ *http.Request) {
	last := e.manager.LastSnapshot()
	if last == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, last)
}

func (e *environment) postActivate(w http.ResponseWriter, _ *http.Request) {
	e.profiler.Activate()
	w.WriteHeader(http.StatusNoContent)
}

func (e *environment) postDeactivate(w http.ResponseWriter, _ *http.Request) {
	if err := e.profiler.Deactivate(); err != nil {
		e.logger.Err(err).Msg("deactivate request ignored")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
