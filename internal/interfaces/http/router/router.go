package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/printshop/catalog/internal/infrastructure/logger"
	"github.com/printshop/catalog/internal/interfaces/http/handler"
)

// RouteRegistrar registers a set of routes on the API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router assembles middleware, system endpoints, and API routes on a gin engine.
type Router struct {
	engine     *gin.Engine
	log        *zap.Logger
	system     *handler.SystemHandler
	registrars []RouteRegistrar
}

// New creates a Router around an existing gin engine.
func New(engine *gin.Engine, log *zap.Logger, system *handler.SystemHandler) *Router {
	return &Router{
		engine: engine,
		log:    log,
		system: system,
	}
}

// Register queues a RouteRegistrar for Setup.
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup installs middleware and mounts every registered route.
func (r *Router) Setup() {
	r.engine.Use(logger.RequestID())
	r.engine.Use(logger.GinMiddleware(r.log))
	r.engine.Use(logger.Recovery(r.log))

	if r.system != nil {
		r.engine.GET("/healthz", r.system.Health)
	}

	api := r.engine.Group("/api")
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}
