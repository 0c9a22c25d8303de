package server

import (
	"net/http"

	"github.com/tidehaven/authportal/internal/handlers"
	"github.com/tidehaven/authportal/internal/middleware"
)

func (s *Server) setupRoutes() (http.Handler, error) {
	mux := http.NewServeMux()

	view, err := handlers.NewView()
	if err != nil {
		return nil, err
	}

	authGate := middleware.NewAuth(s.cfg.Server, s.store, s.client, s.logger)

	homeHandler := handlers.NewHomeHandler(s.cfg.Server, s.store, s.client, view, s.logger)
	authHandler := handlers.NewAuthHandler(s.cfg.Server, s.store, s.client, s.logger)
	callbackHandler := handlers.NewCallbackHandler(s.cfg.Server, s.store, s.client, s.logger)
	logoutHandler := handlers.NewLogoutHandler(s.cfg.Server, s.store, s.client, s.logger)
	dashboardHandler := handlers.NewDashboardHandler(s.store, s.client, view, s.logger)
	healthHandler := handlers.NewHealthHandler(s.cfg.Cache, s.cache, s.logger)

	mux.Handle("GET /{$}", homeHandler)
	mux.HandleFunc("GET /auth/login", authHandler.Login)
	mux.HandleFunc("GET /auth/register", authHandler.Register)
	mux.Handle("GET /auth/callback", callbackHandler)
	mux.Handle("GET /auth/logout", logoutHandler)
	mux.Handle("GET /dashboard", authGate.RequireAuth(dashboardHandler))
	mux.Handle("GET /health", healthHandler)

	handler := middleware.Recovery(s.logger)(
		middleware.Logging(s.logger)(
			addSecurityHeaders(mux),
		),
	)

	return handler, nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
