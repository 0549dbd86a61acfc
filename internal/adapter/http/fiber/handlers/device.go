package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/siges-solar/internal/domain"
	"github.com/seu-repo/siges-solar/internal/ports"
)

type DeviceHandler struct {
	service ports.DeviceService
	log     *zap.Logger
}

func NewDeviceHandler(service ports.DeviceService, log *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		service: service,
		log:     log,
	}
}

func (h *DeviceHandler) List(c *fiber.Ctx) error {
	filter := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	if siteID := c.Query("site_id"); siteID != "" {
		filter["site_id"] = siteID
	}

	devices, err := h.service.ListDevices(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(devices)
}

func (h *DeviceHandler) Get(c *fiber.Ctx) error {
	device, err := h.service.GetDevice(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(device)
}

func (h *DeviceHandler) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status domain.DeviceStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid body")
	}

	if err := h.service.UpdateStatus(c.Context(), c.Params("id"), req.Status); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}
