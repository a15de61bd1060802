package api

import (
	"net/http"
	"parking_console/internal/api/handler"
	"parking_console/internal/api/middleware"
	"parking_console/internal/domain"
	"parking_console/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles what the HTTP layer calls into. LPR is nil when plate
// recognition is disabled.
type Services struct {
	Auth    *service.AuthService
	Parking *service.ParkingService
	Reports *service.ReportService
	LPR     *service.LPRService
}

func SetupRouter(svc Services, authMw *middleware.AuthMiddleware) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handler.NewAuthHandler(svc.Auth)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/reset-password", authHandler.ResetPassword)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		v1.POST("/auth/logout", authHandler.Logout)

		slotH := handler.NewParkingSlotHandler(svc.Parking)
		slotRoutes := v1.Group("/slots")
		{
			slotRoutes.GET("", slotH.ListSlots)
			slotRoutes.GET("/:slot_id", slotH.GetSlot)
			slotRoutes.POST("", authMw.AuthorizeRole(domain.RoleAdmin), slotH.AddSlot)
			slotRoutes.DELETE("/:slot_id", authMw.AuthorizeRole(domain.RoleAdmin), slotH.DeleteSlot)
		}

		bookingH := handler.NewBookingHandler(svc.Parking)
		gate := authMw.AuthorizeRole(domain.RoleStaff, domain.RoleAdmin)
		bookingRoutes := v1.Group("/bookings")
		{
			bookingRoutes.POST("", authMw.AuthorizeRole(domain.RoleCustomer), bookingH.Reserve)
			bookingRoutes.GET("/mine", bookingH.MyBookings)
			bookingRoutes.GET("/:id", bookingH.GetBooking)
			bookingRoutes.POST("/:id/cancel", bookingH.Cancel)
			bookingRoutes.POST("/:id/check-in", gate, bookingH.CheckIn)
			bookingRoutes.POST("/:id/check-out", gate, bookingH.CheckOut)
		}

		staffRoutes := v1.Group("/staff")
		staffRoutes.Use(gate)
		{
			staffRoutes.GET("/vehicles/:vehicle/bookings", bookingH.VehicleBookings)
			if svc.LPR != nil {
				lprH := handler.NewLPRHandler(svc.LPR, svc.Parking)
				staffRoutes.POST("/plate-lookup", lprH.PlateLookup)
			}
		}

		adminH := handler.NewAdminHandler(svc.Reports, svc.Auth)
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(authMw.AuthorizeRole(domain.RoleAdmin))
		{
			adminRoutes.GET("/bookings", adminH.FindBookings)
			adminRoutes.GET("/bookings/stats", adminH.Stats)
			adminRoutes.GET("/bookings/export", adminH.Export)
			adminRoutes.GET("/dashboard", adminH.Dashboard)
			adminRoutes.GET("/users", adminH.ListUsers)
			adminRoutes.DELETE("/users/:id", adminH.DeleteUser)
			adminRoutes.POST("/staff", adminH.AddStaff)
			adminRoutes.GET("/staff", adminH.ListStaff)
			adminRoutes.DELETE("/staff/:id", adminH.DeleteStaff)
		}
	}
	return r
}
