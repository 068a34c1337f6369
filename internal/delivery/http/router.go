package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"eventcrm/internal/delivery/http/controllers"
	"eventcrm/internal/delivery/http/middleware"
	"eventcrm/internal/domain"
)

// Controllers groups the route handlers.
type Controllers struct {
	Auth          *controllers.AuthController
	Events        *controllers.EventController
	Participation *controllers.ParticipationController
	Users         *controllers.UserController
	Emails        *controllers.EmailController
	SendLogs      *controllers.SendLogController
	Attributions  *controllers.AttributionController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, verifier domain.TokenVerifier, gatherer prometheus.Gatherer, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	staff := middleware.RequireStaff(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/login", c.Auth.Login)

	// Events
	mux.HandleFunc("POST /events", staff(c.Events.CreateEvent))
	mux.HandleFunc("GET /events/{slug}", c.Events.GetEvent)
	mux.HandleFunc("DELETE /events/{slug}", staff(c.Events.DeleteEvent))
	mux.HandleFunc("POST /events/{slug}/role", c.Participation.ChangeRole)

	// CRM
	mux.HandleFunc("GET /users", staff(c.Users.ListSegment))
	mux.HandleFunc("POST /emails/send", staff(c.Emails.Send))
	mux.HandleFunc("GET /send-logs", staff(c.SendLogs.List))
	mux.HandleFunc("GET /attributions", staff(c.Attributions.List))

	// Operations
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
