package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"trivia-quiz-service/internal/app"
)

type RouterOptions struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// NewRouter mounts the REST API, the websocket endpoint and the health check.
func NewRouter(service *app.QuizService, opts RouterOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	api := NewQuizHandler(service, log)
	ws := NewWSHandler(service, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(log), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", api.StartSession)
			r.Post("/custom", api.StartCustomSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", api.GetSession)
				r.Delete("/", api.CloseSession)
				r.Post("/selection", api.Select)
				r.Post("/answer", api.Submit)
				r.Post("/next", api.Next)
				r.Post("/restart", api.Restart)
				r.Get("/results", api.Results)
			})
		})

		r.Route("/question-sets", func(r chi.Router) {
			r.Post("/", api.SaveQuestionSet)
			r.Get("/{setID}", api.GetQuestionSet)
			r.Post("/{setID}/sessions", api.StartSetSession)
		})
	})
	return r
}
