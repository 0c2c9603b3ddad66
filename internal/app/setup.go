// Package app contains the application setup for the inventory server.
package app

import (
	"database/sql"
	"log/slog"
	"net/http"

	"estoque/internal/auth"
	"estoque/internal/config"
	"estoque/internal/service"
	"estoque/internal/store"
	"estoque/internal/transport/rest"
	"estoque/pkg/server"

	"github.com/go-chi/chi/v5"
)

type Dependencies struct {
	Inventory service.InventoryService
	Users     service.UserService
	Sessions  *auth.Manager
	Logger    *slog.Logger
}

func SetupDependencies(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Dependencies {
	inventory := service.NewService(store.NewSQLProductStore(db), store.NewSQLSaleStore(db))
	users := service.NewUserService(store.NewSQLUserStore(db))
	sessions := auth.NewManager(cfg.Session.Secret, cfg.Session.CookieName, cfg.Session.TTL)

	return &Dependencies{
		Inventory: inventory,
		Users:     users,
		Sessions:  sessions,
		Logger:    logger,
	}
}

// SetupHttpHandler initializes the router and routes for the inventory
// application. Used by tests to exercise the full HTTP surface.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes: public pages, the guarded
// dashboard and the session-protected JSON API.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	validate := rest.NewValidate()

	pageHandler := rest.NewPageHandler(deps.Users, deps.Inventory, deps.Sessions, validate, deps.Logger)
	pageHandler.RegisterRoutes(mux)

	apiHandler := rest.NewHandler(deps.Inventory, validate, deps.Logger)
	mux.Group(func(r chi.Router) {
		r.Use(auth.RequireAPI(deps.Sessions))
		apiHandler.RegisterRoutes(r)
	})
}

// SetupHttpServer creates and configures an HTTP server for the
// inventory application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
