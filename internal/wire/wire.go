package wire

import (
	"net/http"

	"vehicle-rental/internal/adaptor"
	"vehicle-rental/internal/data/entity"
	"vehicle-rental/internal/data/repository"
	"vehicle-rental/internal/usecase"
	"vehicle-rental/pkg/middleware"
	"vehicle-rental/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router and the services the background jobs need.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

func Wiring(repo *repository.Repository, config *utils.Config, deps usecase.Dependencies, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, deps, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:  setupRouter(handler, repo, logger),
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, repo *repository.Repository, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	wireVehicle(r, handler.Vehicle, repo, logger)
	wireBooking(r, handler.Booking, repo, logger)
	wirePayment(r, handler.Payment, repo, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}

// staffOnly is the middleware chain for the back office routes.
func staffOnly(r chi.Router, repo *repository.Repository, logger *zap.Logger) {
	r.Use(middleware.AuthSession(repo.Session, repo.User, logger))
	r.Use(middleware.RequireRole(logger, entity.RoleStaff, entity.RoleAdmin))
}
