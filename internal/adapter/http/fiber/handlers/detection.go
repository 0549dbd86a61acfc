package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/siges-solar/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/siges-solar/internal/ports"
)

type DetectionHandler struct {
	service ports.DetectionService
	log     *zap.Logger
}

func NewDetectionHandler(service ports.DetectionService, log *zap.Logger) *DetectionHandler {
	return &DetectionHandler{
		service: service,
		log:     log,
	}
}

// Run triggers a full fleet detection run synchronously. Overlapping with a
// scheduled run is safe; dedup absorbs the redundant work.
func (h *DetectionHandler) Run(c *fiber.Ctx) error {
	h.log.Info("manual detection run triggered",
		zap.String("actor", middleware.ActorID(c)),
	)

	summary, err := h.service.RunDetectionJob(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// DetectForDevice runs a dry analysis for one device without persisting.
func (h *DetectionHandler) DetectForDevice(c *fiber.Ctx) error {
	windowDays := c.QueryInt("window_days", 0)

	anomalies, err := h.service.DetectForDevice(c.Context(), c.Params("id"), windowDays)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"device_id": c.Params("id"),
		"anomalies": anomalies,
		"count":     len(anomalies),
	})
}
