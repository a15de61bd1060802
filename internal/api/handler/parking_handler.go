package handler

import (
	"net/http"
	"parking_console/internal/domain"
	"parking_console/internal/service"

	"github.com/gin-gonic/gin"
)

// BookingHandler exposes the reservation lifecycle.
type BookingHandler struct {
	parkingService *service.ParkingService
}

func NewBookingHandler(ps *service.ParkingService) *BookingHandler {
	return &BookingHandler{parkingService: ps}
}

// POST /api/v1/bookings
func (h *BookingHandler) Reserve(c *gin.Context) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	var dto domain.ReserveSlotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequest(c, err.Error())
		return
	}

	booking, err := h.parkingService.Reserve(c.Request.Context(), actor, dto)
	if err != nil {
		respondError(c, err, "could not reserve slot")
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// GET /api/v1/bookings/mine
func (h *BookingHandler) MyBookings(c *gin.Context) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	bookings, err := h.parkingService.ListBookingsByUser(c.Request.Context(), actor, actor.Username)
	if err != nil {
		respondError(c, err, "could not list bookings")
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	booking, err := h.parkingService.GetBooking(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err, "could not load booking")
		return
	}
	c.JSON(http.StatusOK, booking)
}

type bookingTransition func(*service.ParkingService, *gin.Context, domain.Actor, int) (*domain.Booking, error)

func (h *BookingHandler) transition(c *gin.Context, op string, apply bookingTransition) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	booking, err := apply(h.parkingService, c, actor, id)
	if err != nil {
		respondError(c, err, "could not "+op+" booking")
		return
	}
	c.JSON(http.StatusOK, booking)
}

// POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	h.transition(c, "cancel", func(ps *service.ParkingService, c *gin.Context, a domain.Actor, id int) (*domain.Booking, error) {
		return ps.Cancel(c.Request.Context(), a, id)
	})
}

// POST /api/v1/bookings/:id/check-in
func (h *BookingHandler) CheckIn(c *gin.Context) {
	h.transition(c, "check in", func(ps *service.ParkingService, c *gin.Context, a domain.Actor, id int) (*domain.Booking, error) {
		return ps.CheckIn(c.Request.Context(), a, id)
	})
}

// POST /api/v1/bookings/:id/check-out
func (h *BookingHandler) CheckOut(c *gin.Context) {
	h.transition(c, "check out", func(ps *service.ParkingService, c *gin.Context, a domain.Actor, id int) (*domain.Booking, error) {
		return ps.CheckOut(c.Request.Context(), a, id)
	})
}

// GET /api/v1/staff/vehicles/:vehicle/bookings
func (h *BookingHandler) VehicleBookings(c *gin.Context) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	bookings, err := h.parkingService.FindLiveBookingsByVehicle(c.Request.Context(), actor, c.Param("vehicle"))
	if err != nil {
		respondError(c, err, "could not look up vehicle")
		return
	}
	c.JSON(http.StatusOK, bookings)
}
