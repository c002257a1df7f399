// Package httpapi serves a dynaprompt Engine over HTTP.
//
// Routes:
//
//	GET    /healthz
//	GET    /metrics                 (when the engine has metrics)
//	POST   /v1/tokenize             {"prompt": "..."}
//	POST   /v1/validate             {"prompt": "..."}
//	POST   /v1/expand               {"prompt": "...", "surcharges": [...]}
//	POST   /v1/analyze              {"prompt": "..."}
//	GET    /v1/wildcards            ?category=&prefix=&shared=&limit=&offset=
//	GET    /v1/wildcards/{name}
//	PUT    /v1/wildcards/{name}
//	DELETE /v1/wildcards/{name}
//
// A rejected prompt is a 200 response with isValid false. Only malformed
// requests and store failures produce error statuses.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/itsatony/go-dynaprompt"
)

// server holds the handler dependencies
type server struct {
	engine *dynaprompt.Engine
	logger *zap.Logger
}

// NewRouter returns the HTTP handler for engine. A nil logger disables
// request logging.
func NewRouter(engine *dynaprompt.Engine, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &server{engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(middleware.Timeout(RequestTimeout))

	r.Get(PathHealth, s.handleHealth)
	if m := engine.Metrics(); m != nil {
		r.Method(http.MethodGet, PathMetrics, m.Handler())
	}

	r.Post(PathTokenize, s.handleTokenize)
	r.Post(PathValidate, s.handleValidate)
	r.Post(PathExpand, s.handleExpand)
	r.Post(PathAnalyze, s.handleAnalyze)

	r.Route(PathWildcards, func(r chi.Router) {
		r.Get("/", s.handleListWildcards)
		r.Get("/{name}", s.handleGetWildcard)
		r.Put("/{name}", s.handlePutWildcard)
		r.Delete("/{name}", s.handleDeleteWildcard)
	})

	return r
}

// logRequests logs method, path, status and duration of every request
func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug(LogMsgRequest,
			zap.String(LogFieldMethod, r.Method),
			zap.String(LogFieldPath, r.URL.Path),
			zap.Int(LogFieldStatus, ww.Status()),
			zap.Duration(LogFieldDuration, time.Since(start)))
	})
}
