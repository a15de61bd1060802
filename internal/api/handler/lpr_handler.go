package handler

import (
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"parking_console/internal/domain"
	"parking_console/internal/service"

	"github.com/gin-gonic/gin"
)

type LPRHandler struct {
	lprService     *service.LPRService
	parkingService *service.ParkingService
}

func NewLPRHandler(lprService *service.LPRService, parkingService *service.ParkingService) *LPRHandler {
	return &LPRHandler{lprService: lprService, parkingService: parkingService}
}

// POST /api/v1/staff/plate-lookup
// Reads the plate from a camera frame and returns the vehicle's live bookings.
func (h *LPRHandler) PlateLookup(c *gin.Context) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	var req domain.LPRRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload: "+err.Error())
		return
	}

	imageBytes, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil || len(imageBytes) == 0 {
		badRequest(c, "invalid image data")
		return
	}
	log.Printf("LPRHandler: received %d image bytes", len(imageBytes))

	plate, confidence, err := h.lprService.ReadPlate(c.Request.Context(), imageBytes)
	if errors.Is(err, service.ErrPlateNotDetected) {
		c.JSON(http.StatusOK, domain.LPRResponseDTO{LiveBookings: []domain.Booking{}})
		return
	}
	if err != nil {
		respondError(c, err, "plate recognition failed")
		return
	}

	bookings, err := h.parkingService.FindLiveBookingsByVehicle(c.Request.Context(), actor, plate)
	if err != nil {
		respondError(c, err, "could not look up vehicle")
		return
	}
	c.JSON(http.StatusOK, domain.LPRResponseDTO{
		DetectedPlate: plate,
		Confidence:    confidence,
		LiveBookings:  bookings,
	})
}
