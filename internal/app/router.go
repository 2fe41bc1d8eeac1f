package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/apperrors"
	"github.com/volunqueer/volunqueer/internal/attendance"
	"github.com/volunqueer/volunqueer/internal/auth"
	"github.com/volunqueer/volunqueer/internal/config"
	"github.com/volunqueer/volunqueer/internal/events"
	"github.com/volunqueer/volunqueer/internal/messaging"
	"github.com/volunqueer/volunqueer/internal/notifications"
	"github.com/volunqueer/volunqueer/internal/orgs"
	"github.com/volunqueer/volunqueer/internal/rsvps"
	"github.com/volunqueer/volunqueer/internal/users"
)

// NewRouter creates and configures the Chi router with all middleware and routes
func NewRouter(cfg *config.Config, svc *Services) *chi.Mux {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(apperrors.RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.BaseURL},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", apperrors.RequestIDHeader},
		ExposedHeaders: []string{apperrors.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(auth.AuthMiddleware(cfg.JWTSecret))

	// Health check routes (no authentication required)
	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(svc))

	authDeps := auth.Deps{
		Credentials: svc.Credentials,
		Profiles:    svc.Store,
		Auditor:     svc.Auditor,
		JWTSecret:   cfg.JWTSecret,
		SessionDays: cfg.SessionDays,
	}
	eventDeps := events.Deps{Catalog: svc.Store, Orgs: svc.Orgs, Auditor: svc.Auditor}
	orgDeps := orgs.Deps{Catalog: svc.Store, Service: svc.Orgs, Auditor: svc.Auditor, Audit: svc.Audit}
	rsvpDeps := rsvps.Deps{
		Catalog:  svc.Store,
		RSVPs:    svc.RSVPs,
		Orgs:     svc.Orgs,
		Notifier: svc.Notifier,
		Auditor:  svc.Auditor,
	}
	attendanceDeps := attendance.Deps{Events: eventDeps, Users: svc.Store, Service: svc.Attendance, Auditor: svc.Auditor}
	userDeps := users.Deps{Directory: svc.Store}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(APIRateLimitMiddleware(cfg.RateLimitRPM))

		// Authentication
		r.Route("/auth", func(r chi.Router) {
			r.With(LoginRateLimitMiddleware()).Post("/signup", auth.HandleSignup(authDeps))
			r.With(LoginRateLimitMiddleware()).Post("/login", auth.HandleLogin(authDeps))
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)

			// Load state and manual reload stay reachable while loading fails.
			r.Get("/store", handleStoreState(svc))
			r.Post("/store/reload", handleStoreReload(svc))

			r.Group(func(r chi.Router) {
				r.Use(RequireLoaded(svc.Store))

				r.Get("/me", users.HandleGetMe(userDeps))
				r.Put("/me", users.HandleUpdateMe(userDeps))
				r.Get("/me/rsvps", rsvps.HandleListMine(rsvpDeps))
				r.Get("/me/rsvps/calendar", rsvps.HandleCalendar(rsvpDeps))
				r.Get("/me/notifications", notifications.HandleList(svc.Inbox))
				r.Post("/me/notifications/{notification_id}/read", notifications.HandleMarkRead(svc.Inbox))

				r.Get("/orgs", orgs.HandleList(orgDeps))
				r.Post("/orgs", orgs.HandleCreate(orgDeps))
				r.Get("/orgs/{org_id}", orgs.HandleGet(orgDeps))
				r.Put("/orgs/{org_id}", orgs.HandleUpdate(orgDeps))
				r.Get("/orgs/{org_id}/members", orgs.HandleListMembers(orgDeps))
				r.Get("/orgs/{org_id}/audit", orgs.HandleListAudit(orgDeps))

				r.Get("/events", events.HandleList(eventDeps))
				r.Post("/events", events.HandleCreate(eventDeps))
				r.Get("/events/{event_id}", rsvps.HandleEventDetail(rsvpDeps))
				r.Put("/events/{event_id}", events.HandleUpdate(eventDeps))
				r.Get("/events/{event_id}/draft", events.HandleGetDraft(eventDeps))

				r.Get("/events/{event_id}/rsvp", rsvps.HandleGet(rsvpDeps))
				r.Put("/events/{event_id}/rsvp", rsvps.HandleSubmit(rsvpDeps))
				r.Delete("/events/{event_id}/rsvp", rsvps.HandleCancel(rsvpDeps))
				r.Get("/events/{event_id}/rsvps", rsvps.HandleListForEvent(rsvpDeps))

				r.Get("/events/{event_id}/attendance", attendance.HandleList(attendanceDeps))
				r.Post("/events/{event_id}/attendance/{user_id}/check-in", attendance.HandleCheckIn(attendanceDeps))
				r.Post("/events/{event_id}/attendance/{user_id}/check-out", attendance.HandleCheckOut(attendanceDeps))

				r.Get("/threads", messaging.HandleListThreads(svc.Messaging))
				r.Get("/threads/{thread_id}/messages", messaging.HandleListMessages(svc.Messaging))
				r.Post("/threads/{thread_id}/messages", messaging.HandleSend(svc.Messaging))
			})
		})
	})

	return r
}

// handleHealthz returns a simple liveness check
// Always returns 200 OK if the service is running
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleReadyz reports ready once the application store has loaded and
// the database, if any, answers a ping.
func handleReadyz(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := svc.Store.State()
		if !state.Ready() {
			apperrors.WriteServiceUnavailable(w, r, "Application store is "+string(state.Phase))
			return
		}

		dbStatus := "mock"
		if svc.Ping != nil {
			if err := svc.Ping(r.Context()); err != nil {
				apperrors.WriteServiceUnavailable(w, r, "Database connection failed")
				return
			}
			dbStatus = "ok"
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
			"status": "ready",
			"db":     dbStatus,
		})
	}
}

func handleStoreState(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"state": svc.Store.State(),
			"mock":  svc.Store.IsMock(),
		})
	}
}

// handleStoreReload reruns the bulk load. On failure the old cache is kept
// but data routes answer 503 until a reload succeeds.
func handleStoreReload(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Store.Load(r.Context()); err != nil {
			log.Error().Err(err).Msg("Failed to reload application store")
			apperrors.WriteServiceUnavailable(w, r, err.Error())
			return
		}
		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"state": svc.Store.State(),
		})
	}
}
