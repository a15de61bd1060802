package handler

import (
	"net/http"
	"parking_console/internal/domain"
	"parking_console/internal/service"

	"github.com/gin-gonic/gin"
)

type ParkingSlotHandler struct {
	parkingService *service.ParkingService
}

func NewParkingSlotHandler(ps *service.ParkingService) *ParkingSlotHandler {
	return &ParkingSlotHandler{parkingService: ps}
}

// GET /api/v1/slots
func (h *ParkingSlotHandler) ListSlots(c *gin.Context) {
	slots, err := h.parkingService.ListSlots(c.Request.Context())
	if err != nil {
		respondError(c, err, "could not list slots")
		return
	}
	c.JSON(http.StatusOK, slots)
}

// GET /api/v1/slots/:slot_id
func (h *ParkingSlotHandler) GetSlot(c *gin.Context) {
	slotID, ok := pathID(c, "slot_id")
	if !ok {
		return
	}

	slot, err := h.parkingService.GetSlot(c.Request.Context(), slotID)
	if err != nil {
		respondError(c, err, "could not load slot")
		return
	}
	c.JSON(http.StatusOK, slot)
}

// POST /api/v1/slots
func (h *ParkingSlotHandler) AddSlot(c *gin.Context) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	var dto domain.CreateSlotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequest(c, err.Error())
		return
	}

	slot, err := h.parkingService.AddSlot(c.Request.Context(), actor, dto)
	if err != nil {
		respondError(c, err, "could not add slot")
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// DELETE /api/v1/slots/:slot_id
func (h *ParkingSlotHandler) DeleteSlot(c *gin.Context) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	slotID, ok := pathID(c, "slot_id")
	if !ok {
		return
	}

	if err := h.parkingService.DeleteSlot(c.Request.Context(), actor, slotID); err != nil {
		respondError(c, err, "could not delete slot")
		return
	}
	c.Status(http.StatusNoContent)
}
