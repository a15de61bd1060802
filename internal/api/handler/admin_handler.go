package handler

import (
	"context"
	"fmt"
	"net/http"
	"parking_console/internal/domain"
	"parking_console/internal/service"
	"time"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	reportService *service.ReportService
	authService   *service.AuthService
}

func NewAdminHandler(rs *service.ReportService, as *service.AuthService) *AdminHandler {
	return &AdminHandler{reportService: rs, authService: as}
}

func bindFilter(c *gin.Context) (domain.BookingFilter, bool) {
	var filter domain.BookingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err.Error())
		return filter, false
	}
	return filter, true
}

// GET /api/v1/admin/bookings?status=&user=&vehicle=&q=&limit=
func (h *AdminHandler) FindBookings(c *gin.Context) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	bookings, err := h.reportService.FindBookings(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err, "could not list bookings")
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// GET /api/v1/admin/bookings/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	stats, err := h.reportService.Stats(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err, "could not compute stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/v1/admin/bookings/export
func (h *AdminHandler) Export(c *gin.Context) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	raw, err := h.reportService.ExportBookingsXLSX(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err, "could not export bookings")
		return
	}
	name := fmt.Sprintf("bookings-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, raw)
}

// GET /api/v1/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	d, err := h.reportService.Dashboard(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "could not build dashboard")
		return
	}
	c.JSON(http.StatusOK, d)
}

// GET /api/v1/admin/users?role=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	h.listUsers(c, domain.Role(c.Query("role")))
}

// GET /api/v1/admin/staff
func (h *AdminHandler) ListStaff(c *gin.Context) {
	h.listUsers(c, domain.RoleStaff)
}

func (h *AdminHandler) listUsers(c *gin.Context, role domain.Role) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	users, err := h.authService.ListUsers(c.Request.Context(), actor, role)
	if err != nil {
		respondError(c, err, "could not list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// POST /api/v1/admin/staff
func (h *AdminHandler) AddStaff(c *gin.Context) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	var dto domain.RegisterUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequest(c, err.Error())
		return
	}

	staff, err := h.authService.AddStaff(c.Request.Context(), actor, dto)
	if err != nil {
		respondError(c, err, "could not add staff")
		return
	}
	c.JSON(http.StatusCreated, staff)
}

// DELETE /api/v1/admin/staff/:id
func (h *AdminHandler) DeleteStaff(c *gin.Context) {
	h.deleteUser(c, h.authService.DeleteStaff)
}

// DELETE /api/v1/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	h.deleteUser(c, h.authService.DeleteUser)
}

func (h *AdminHandler) deleteUser(c *gin.Context, del func(ctx context.Context, actor domain.Actor, id int) error) {
	actor, ok := requestActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := del(c.Request.Context(), actor, id); err != nil {
		respondError(c, err, "could not delete user")
		return
	}
	c.Status(http.StatusNoContent)
}
