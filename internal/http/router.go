package api

import (
	stdhttp "net/http"

	intconfig "courtreserve/internal/config"
	"courtreserve/internal/domain"
	h "courtreserve/internal/http/handlers"
	"courtreserve/internal/http/middleware"
	"courtreserve/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func NewRouter(env intconfig.Env, hd *h.Handler) *gin.Engine {
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.AllowedOrigins()))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warn().Err(err).Msg("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	admins := []string{string(domain.RoleAdmin), string(domain.RoleSuperAdmin)}
	authed := middleware.Authenticate(hd.Auth)

	api := r.Group("/api")
	{
		api.GET("/health", hd.Health)
		api.GET("/db-check", hd.DBCheck)
		api.GET("/routes", hd.Routes)

		api.GET("/courts", hd.ListCourts)
		api.GET("/courts/:id/availability", hd.CourtAvailability)
		api.GET("/slots", hd.ListSlots)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/login", hd.Login)
		auth.POST("/register", hd.Register)

		user := api.Group("", authed)
		user.GET("/me", hd.Me)
		user.POST("/discounts/validate", hd.ValidateDiscount)

		// Bookings
		bookings := user.Group("/bookings")
		bookings.POST("/quote", hd.QuoteBooking)
		bookings.POST("/payments", hd.InitiatePayment)
		bookings.POST("", hd.CreateBooking)
		bookings.GET("/mine", hd.MyBookings)
		bookings.GET("/:id", hd.GetBooking)
		bookings.POST("/:id/cancel", hd.CancelBooking)
		bookings.GET("/:id/receipt", hd.BookingReceipt)

		// Live collections
		stream := user.Group("/stream")
		stream.GET("/bookings", hd.Stream(services.CollectionBookings))
		stream.GET("/users", middleware.RequireRoles(admins...), hd.Stream(services.CollectionUsers))
		stream.GET("/discounts", middleware.RequireRoles(admins...), hd.Stream(services.CollectionDiscounts))

		// Admin
		admin := user.Group("/admin", middleware.RequireRoles(admins...))
		admin.GET("/bookings", hd.AdminListBookings)
		admin.POST("/bookings", hd.AdminCreateBooking)
		admin.GET("/courts/:id/bookings", hd.AdminCourtDay)
		admin.GET("/discounts", hd.AdminListDiscounts)
		admin.POST("/discounts", hd.AdminCreateDiscount)
		admin.DELETE("/discounts/:code", hd.AdminDeleteDiscount)
		admin.GET("/users", hd.AdminListUsers)
		admin.POST("/users/:id/ban", hd.AdminBanUser)
		admin.POST("/users/:id/unban", hd.AdminUnbanUser)
		admin.PUT("/users/:id/role", middleware.RequireRoles(string(domain.RoleSuperAdmin)), hd.AdminSetUserRole)
		admin.GET("/stats", hd.AdminStats)
		admin.GET("/reconciliations", hd.AdminListReconciliations)
		admin.POST("/reconciliations/:id/resolve", hd.AdminResolveReconciliation)
	}

	h.SetRouter(r)
	return r
}
