// Package repairs provides the repair request module: the request lifecycle,
// estimates and device photos.
package repairs

import (
	"repair_backend/internal/adapters/storage"
	"repair_backend/internal/events"
	apphttp "repair_backend/internal/http"
	"repair_backend/internal/repairs/handler"
	"repair_backend/internal/repairs/repository"
	"repair_backend/internal/repairs/service"
	"repair_backend/platform/logger"
	"repair_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the repairs domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new repairs module. storageSvc may be nil, in which
// case the photo routes are not registered.
func NewModule(
	pool *pgxpool.Pool,
	costs service.CostCalculator,
	storageSvc storage.StorageService,
	bucket string,
	bus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
	policy service.Policy,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, costs, bus, log, policy)
	if storageSvc != nil {
		svc.SetPhotoStorage(storageSvc, bucket)
	}

	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "repairs"
}

// RegisterRoutes registers the module's routes under /api/v1/repairs and /api/v1/estimates
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/repairs"))
	m.handler.RegisterPricingRoutes(ctx.Protected.Group("/estimates"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
