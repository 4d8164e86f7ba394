package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/curaflow/appointment-platform/internal/appointments"
	httpmiddleware "github.com/curaflow/appointment-platform/internal/http/middleware"
	"github.com/curaflow/appointment-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *appointments.Handler
	MetricsHandler      http.Handler
	AuthSecret          string
	CORSAllowedOrigins  []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Authenticated endpoints
	h := cfg.AppointmentsHandler
	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.RequireUser(cfg.AuthSecret))

		private.Route("/appointments", func(r chi.Router) {
			r.Post("/", h.Create)
			r.Get("/today", h.ListToday)
			r.Get("/upcoming", h.ListUpcoming)
			r.Get("/previous", h.ListPrevious)
			r.Get("/canceled", h.ListCanceled)
			r.Route("/{appointmentID}", func(r chi.Router) {
				r.Get("/", h.Get)
				r.Put("/", h.Update)
				r.Delete("/", h.Delete)
				r.Post("/cancel", h.Cancel)
				r.Post("/complete", h.Complete)
				r.Post("/teleconsultation/start", h.StartTeleconsultation)
				r.Post("/teleconsultation/finish", h.FinishTeleconsultation)
			})
		})

		private.Route("/doctors/{doctorID}", func(r chi.Router) {
			r.Get("/appointments", h.ListForDoctor)
			r.Route("/unavailable-times", func(r chi.Router) {
				r.Get("/", h.ListUnavailableTimes)
				r.Post("/", h.AddUnavailableTime)
				r.Delete("/{windowID}", h.RemoveUnavailableTime)
			})
		})

		private.Get("/patients/{patientID}/appointments", h.ListForPatient)
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
