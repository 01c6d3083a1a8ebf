package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/treeprof/treeprof/internal/actions"
	"github.com/treeprof/treeprof/internal/aggregator"
	"github.com/treeprof/treeprof/internal/httputil"
	"github.com/treeprof/treeprof/internal/logutil"
	"github.com/treeprof/treeprof/internal/profiler"
)

type environment struct {
	config ServiceConfig

	profiler *profiler.Profiler
	manager  *aggregator.Manager
	logger   zerolog.Logger
}

var release string

type contextKey int

const recorderContextKey contextKey = 0

func newEnvironment(config ServiceConfig) *environment {
	registry := actions.NewRegistry()
	e := environment{
		config:   config,
		profiler: profiler.New(registry),
		manager:  aggregator.NewManager(registry),
		logger:   log.Logger,
	}
	if config.Environment == "production" {
		e.logger = log.Sample(logutil.LevelSampler{Level: zerolog.InfoLevel})
	}
	if config.ActiveOnStart {
		e.profiler.Activate()
	}
	return &e
}

// traced records the whole request handling as one traced execution and
// submits it to the manager. The recorder travels in the request context so
// handlers can nest their own actions under the route action.
func (e *environment) traced(action actions.ActionID, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !e.profiler.Active() {
			next(w, r)
			return
		}
		rec := e.profiler.NewRecorder()
		guard := rec.StartGuard(action)
		next(w, r.WithContext(context.WithValue(r.Context(), recorderContextKey, rec)))
		guard.Stop()
		if err := rec.Submit(e.manager); err != nil {
			e.logger.Err(err).Msg("error submitting request trace")
			return
		}
		e.logger.Debug().Str("trace_id", rec.ID().String()).Msg("request trace submitted")
	}
}

func recorderFromContext(ctx context.Context) *profiler.Recorder {
	rec, _ := ctx.Value(recorderContextKey).(*profiler.Recorder)
	return rec
}

func (e *environment) newRouter() (*httprouter.Router, error) {
	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		return nil, err
	}

	routes := []struct {
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{http.MethodGet, "/health", e.getHealth},
		{http.MethodGet, "/profile/total", e.getProfileTotal},
		{http.MethodGet, "/profile/last", e.getProfileLast},
		{http.MethodPost, "/profile/activate", e.postActivate},
		{http.MethodPost, "/profile/deactivate", e.postDeactivate},
		{http.MethodPost, "/simulate", e.postSimulate},
	}

	router := httprouter.New()

	for _, route := range routes {
		action := e.profiler.DefineAction(route.method + " " + route.path)
		handlerFunc := e.traced(action, route.handler)
		handlerFunc = httputil.DecompressPayload(handlerFunc)
		router.Handler(route.method, route.path, compress(handlerFunc))
	}
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	return router, nil
}

func main() {
	logutil.ConfigureLogger()

	config, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error loading configuration")
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:         config.SentryDSN,
		Environment: config.Environment,
		Release:     release,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("can't initialize sentry")
	}

	env := newEnvironment(config)

	router, err := env.newRouter()
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("error setting up the router")
	}

	server := http.Server{
		Addr:    ":" + config.Port,
		Handler: sentryhttp.New(sentryhttp.Options{}).Handle(router),
	}

	waitForShutdown := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c

		cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(cctx); err != nil {
			sentry.CaptureException(err)
			log.Err(err).Msg("error shutting down server")
		}

		close(waitForShutdown)
	}()

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		sentry.CaptureException(err)
		log.Err(err).Msg("server failed")
	}

	<-waitForShutdown

	sentry.Flush(5 * time.Second)
}

func (e *environment) getHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
