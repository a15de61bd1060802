package handler

import (
	"errors"
	"log"
	"net/http"
	"parking_console/internal/api/middleware"
	"parking_console/internal/domain"
	"parking_console/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

var kindStatus = map[string]int{
	"NotFound":              http.StatusNotFound,
	"SlotUnavailable":       http.StatusConflict,
	"VehicleAlreadyParked":  http.StatusConflict,
	"UserAlreadyHasBooking": http.StatusConflict,
	"InvalidTransition":     http.StatusConflict,
	"SlotInUse":             http.StatusConflict,
	"DuplicateSlotNumber":   http.StatusConflict,
	"DuplicateUsername":     http.StatusConflict,
	"DuplicatePhone":        http.StatusConflict,
	"UserHasLiveBooking":    http.StatusConflict,
	"InvalidInput":          http.StatusUnprocessableEntity,
	"Forbidden":             http.StatusForbidden,
	"InvalidCredentials":    http.StatusUnauthorized,
}

// respondError writes {"error", "code"} with the status of the rejection
// kind. Unknown errors become a 500 with the fallback message.
func respondError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, service.ErrTokenInvalid) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "Unauthorized"})
		return
	}
	kind := domain.ErrorCode(err)
	if status, ok := kindStatus[kind]; ok {
		c.JSON(status, gin.H{"error": err.Error(), "code": kind})
		return
	}
	log.Printf("%s %s: %s: %v", c.Request.Method, c.FullPath(), fallback, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback, "code": "Internal"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "BadRequest"})
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func requestActor(c *gin.Context) (domain.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated", "code": "Unauthorized"})
	}
	return actor, ok
}
