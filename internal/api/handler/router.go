package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/ElFirdaous28/event-reservation-system/internal/api/middleware"
)

// Handlers はルーティングに必要なハンドラの集合
type Handlers struct {
	Auth        *AuthHandler
	Event       *EventHandler
	Reservation *ReservationHandler
	Health      *HealthHandler
}

// RegisterRoutes はAPIのルーティングを設定する
// 認証必須のルートは JWTAuth、管理者専用のルートは RequireAdmin で保護する
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string) {
	v1 := e.Group("/api/v1")

	v1.GET("/health", h.Health.Check)

	// 認証
	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.GET("/profile", h.Auth.Profile, middleware.JWTAuth(jwtSecret))

	// イベント
	events := v1.Group("/events", middleware.JWTAuth(jwtSecret))
	events.GET("", h.Event.List)
	events.GET("/:id", h.Event.GetByID)
	events.GET("/:id/availability", h.Event.GetAvailability)
	events.POST("", h.Event.Create, middleware.RequireAdmin())
	events.PUT("/:id", h.Event.Update, middleware.RequireAdmin())
	events.PATCH("/:id/status", h.Event.ChangeStatus, middleware.RequireAdmin())
	events.DELETE("/:id", h.Event.Delete, middleware.RequireAdmin())

	// 予約
	reservations := v1.Group("/reservations", middleware.JWTAuth(jwtSecret))
	reservations.POST("", h.Reservation.Create)
	reservations.GET("", h.Reservation.List)
	reservations.GET("/my-reservations", h.Reservation.GetMyReservations)
	reservations.GET("/stats/all", h.Reservation.GetStats, middleware.RequireAdmin())
	reservations.GET("/event/:eventId", h.Reservation.GetByEvent)
	reservations.GET("/:id", h.Reservation.GetByID)
	reservations.PATCH("/:id/status", h.Reservation.ChangeStatus)
	reservations.DELETE("/:id", h.Reservation.Remove)
}
