package sync

import (
	"unisync/core/orchestrator"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the sync feature. snapshots may be nil.
func NewFeature(orch *orchestrator.Orchestrator, snapshots SnapshotLister, logger *zap.Logger) *Feature {
	svc := NewService(orch, snapshots, logger)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "sync"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Close stops background syncs started over HTTP.
func (f *Feature) Close() {
	f.service.Close()
}
