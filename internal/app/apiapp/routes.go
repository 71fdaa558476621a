package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreysobol/amora/internal/config"
	actionsvc "github.com/andreysobol/amora/internal/services/actions"
	authsvc "github.com/andreysobol/amora/internal/services/auth"
	quotasvc "github.com/andreysobol/amora/internal/services/quota"
	"github.com/andreysobol/amora/internal/transport/http/handlers"
)

type Dependencies struct {
	ActionService *actionsvc.Service
	QuotaService  *quotasvc.Service
	JWTManager    *authsvc.JWTManager
	Logger        *zap.Logger
	Config        config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	actionHandler := handlers.NewActionHandler(deps.ActionService)
	quotaHandler := handlers.NewQuotaHandler(deps.QuotaService)
	healthHandler := handlers.NewHealthHandler()
	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.With(authMW).Post("/like", actionHandler.Like)
	r.With(authMW).Post("/superlike", actionHandler.SuperLike)
	r.With(authMW).Post("/rewind", actionHandler.Rewind)
	r.With(authMW).Post("/boost", actionHandler.Boost)
	r.With(authMW).Get("/quota", quotaHandler.Handle)

	r.Route("/v1", func(r chi.Router) {
		r.With(authMW).Post("/like", actionHandler.Like)
		r.With(authMW).Post("/superlike", actionHandler.SuperLike)
		r.With(authMW).Post("/rewind", actionHandler.Rewind)
		r.With(authMW).Post("/boost", actionHandler.Boost)
		r.With(authMW).Get("/quota", quotaHandler.Handle)
	})
}
