package sync

import (
	"errors"

	"unisync/core/catalog"
	"unisync/core/logger"
	"unisync/core/orchestrator"
	"unisync/core/source"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for sync runs.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/institutions", h.HandleListInstitutions)
	app.Post("/sync", h.HandleSyncAll)

	group := app.Group("/sync")
	group.Post("/:institution", h.HandleSyncInstitution)
	group.Get("/:institution/status", h.HandleStatus)
	group.Get("/:institution/history", h.HandleHistory)
	group.Get("/:institution/snapshots", h.HandleSnapshots)
}

// HandleListInstitutions lists the registered institutions.
// @Summary List Institutions
// @Description List registered institutions with their adapter and categories.
// @Tags institutions
// @Produce json
// @Success 200 {array} InstitutionView "Institutions"
// @Router /institutions [get]
func (h *Handler) HandleListInstitutions(c *fiber.Ctx) error {
	return c.JSON(h.service.Institutions())
}

// HandleSyncAll syncs every registered institution.
// @Summary Sync All Institutions
// @Description Sync every category of every registered institution. Runs in the background unless wait=true.
// @Tags sync
// @Produce json
// @Param category query string false "Comma separated categories"
// @Param wait query bool false "Wait for the runs to finish"
// @Success 200 {object} map[string]interface{} "Finished runs"
// @Success 202 {object} map[string]interface{} "Accepted pairs"
// @Failure 409 {object} map[string]string "Pair busy"
// @Router /sync [post]
func (h *Handler) HandleSyncAll(c *fiber.Ctx) error {
	return h.sync(c, h.service.SyncAllCodes())
}

// HandleSyncInstitution syncs one institution.
// @Summary Sync Institution
// @Description Sync one institution. Runs in the background unless wait=true.
// @Tags sync
// @Produce json
// @Param institution path string true "Institution code (e.g. 'ualberta')"
// @Param category query string false "Comma separated categories"
// @Param wait query bool false "Wait for the runs to finish"
// @Success 200 {object} map[string]interface{} "Finished runs"
// @Success 202 {object} map[string]interface{} "Accepted pairs"
// @Failure 400 {object} map[string]string "Invalid category"
// @Failure 404 {object} map[string]string "Unknown institution"
// @Failure 409 {object} map[string]string "Pair busy"
// @Router /sync/{institution} [post]
func (h *Handler) HandleSyncInstitution(c *fiber.Ctx) error {
	return h.sync(c, []string{c.Params("institution")})
}

func (h *Handler) sync(c *fiber.Ctx, codes []string) error {
	l := logger.WithRayID(h.service.logger, c)

	categories, err := catalog.ParseCategories([]string{c.Query("category")})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if !c.QueryBool("wait") {
		pairs, err := h.service.Start(codes, categories)
		if err != nil {
			return h.fail(c, l, err)
		}
		l.Info("Sync accepted", zap.Strings("institutions", codes), zap.Int("pairs", len(pairs)))
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "accepted",
			"pairs":  pairs,
		})
	}

	runs, err := h.service.Sync(c.UserContext(), codes, categories)
	if err != nil {
		if errors.Is(err, orchestrator.ErrPairBusy) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
				"runs":  runs,
			})
		}
		return h.fail(c, l, err)
	}
	return c.JSON(fiber.Map{"runs": runs})
}

// HandleStatus returns the latest run per category.
// @Summary Institution Status
// @Description Latest run of every category and the runs in flight.
// @Tags sync
// @Produce json
// @Param institution path string true "Institution code"
// @Success 200 {object} StatusView "Status"
// @Failure 404 {object} map[string]string "Unknown institution"
// @Router /sync/{institution}/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	status, err := h.service.Status(c.UserContext(), c.Params("institution"))
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(status)
}

// HandleHistory returns recent runs.
// @Summary Sync History
// @Description Recent runs of an institution, newest first.
// @Tags sync
// @Produce json
// @Param institution path string true "Institution code"
// @Param limit query int false "Maximum number of runs (default 20)"
// @Success 200 {array} ledger.Run "Runs"
// @Failure 404 {object} map[string]string "Unknown institution"
// @Router /sync/{institution}/history [get]
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	runs, err := h.service.History(c.UserContext(), c.Params("institution"), c.QueryInt("limit"))
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(runs)
}

// HandleSnapshots lists archived snapshots.
// @Summary List Snapshots
// @Description Archived fetch snapshots of an institution.
// @Tags sync
// @Produce json
// @Param institution path string true "Institution code"
// @Param category query string false "Category filter"
// @Success 200 {array} archive.Entry "Snapshots"
// @Failure 404 {object} map[string]string "Unknown institution or archive disabled"
// @Router /sync/{institution}/snapshots [get]
func (h *Handler) HandleSnapshots(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var category catalog.Category
	if q := c.Query("category"); q != "" {
		parsed, err := catalog.ParseCategory(q)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		category = parsed
	}

	entries, err := h.service.Snapshots(c.UserContext(), c.Params("institution"), category)
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(entries)
}

// fail maps service errors to status codes.
func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, source.ErrUnknownInstitution), errors.Is(err, ErrArchiveDisabled):
		status = fiber.StatusNotFound
	case errors.Is(err, source.ErrUnsupportedCategory):
		status = fiber.StatusBadRequest
	case errors.Is(err, orchestrator.ErrPairBusy):
		status = fiber.StatusConflict
	}

	if status == fiber.StatusInternalServerError {
		l.Error("Sync request failed", zap.Error(err))
	} else {
		l.Debug("Sync request rejected", zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
