package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/siges-solar/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/siges-solar/internal/domain"
	"github.com/seu-repo/siges-solar/internal/ports"
)

type AnomalyHandler struct {
	service ports.AnomalyService
	log     *zap.Logger
}

func NewAnomalyHandler(service ports.AnomalyService, log *zap.Logger) *AnomalyHandler {
	return &AnomalyHandler{
		service: service,
		log:     log,
	}
}

func filterFromQuery(c *fiber.Ctx) ports.AnomalyFilter {
	return ports.AnomalyFilter{
		DeviceID: c.Query("device_id"),
		Type:     domain.AnomalyType(c.Query("type")),
		Severity: domain.AnomalySeverity(c.Query("severity")),
		Status:   domain.AnomalyStatus(c.Query("status")),
		Limit:    c.QueryInt("limit", 50),
		Offset:   c.QueryInt("offset", 0),
	}
}

func (h *AnomalyHandler) List(c *fiber.Ctx) error {
	anomalies, total, err := h.service.ListAll(c.Context(), filterFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"anomalies": anomalies,
		"total":     total,
	})
}

func (h *AnomalyHandler) ListForDevice(c *fiber.Ctx) error {
	anomalies, err := h.service.ListForDevice(c.Context(), c.Params("id"), filterFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(anomalies)
}

func (h *AnomalyHandler) Get(c *fiber.Ctx) error {
	anomaly, err := h.service.GetAnomaly(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(anomaly)
}

type resolutionRequest struct {
	Notes string `json:"notes"`
}

func (h *AnomalyHandler) Acknowledge(c *fiber.Ctx) error {
	anomaly, err := h.service.Acknowledge(c.Context(), c.Params("id"), middleware.ActorID(c))
	if err != nil {
		return err
	}
	return c.JSON(anomaly)
}

func (h *AnomalyHandler) Resolve(c *fiber.Ctx) error {
	var req resolutionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid body")
	}

	anomaly, err := h.service.Resolve(c.Context(), c.Params("id"), middleware.ActorID(c), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(anomaly)
}

func (h *AnomalyHandler) MarkFalsePositive(c *fiber.Ctx) error {
	var req resolutionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid body")
	}

	anomaly, err := h.service.MarkFalsePositive(c.Context(), c.Params("id"), middleware.ActorID(c), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(anomaly)
}

func (h *AnomalyHandler) Stats(c *fiber.Ctx) error {
	report, err := h.service.Stats(c.Context(), c.Query("device_id"))
	if err != nil {
		return err
	}
	return c.JSON(report)
}
