package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ElFirdaous28/event-reservation-system/internal/api"
	"github.com/ElFirdaous28/event-reservation-system/internal/api/middleware"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/reservation"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

type CreateReservationRequest struct {
	EventID string `json:"event_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
}

type ChangeReservationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed refused canceled" example:"confirmed"`
}

type ReservationResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EventID   string    `json:"event_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID    string    `json:"user_id" example:"user-123"`
	Status    string    `json:"status" example:"pending"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:        r.ID,
		EventID:   r.EventID,
		UserID:    r.UserID,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toReservationResponses(reservations []*reservation.Reservation) []ReservationResponse {
	resp := make([]ReservationResponse, len(reservations))
	for i, r := range reservations {
		resp[i] = toReservationResponse(r)
	}
	return resp
}

// Create godoc
// @Summary 予約を作成
// @Description 公開中のイベントに保留中の予約を作成します
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 404 {object} api.ErrorResponse "イベントが存在しない"
// @Failure 409 {object} api.ErrorResponse "予約済みまたは満席"
// @Failure 422 {object} api.ErrorResponse "イベントが非公開"
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, _ := middleware.Actor(c)
	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, api.ErrorResponse{Error: "無効なリクエスト", Code: api.CodeInvalidRequest})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.CreateReservation(c.Request().Context(), req.EventID, userID)
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

// ChangeStatus godoc
// @Summary 予約の状態を変更
// @Description 管理者は任意の状態へ、参加者は自分の予約のキャンセルのみ可能です
// @Tags reservations
// @Accept json
// @Produce json
// @Param id path string true "予約ID"
// @Param request body ChangeReservationStatusRequest true "新しい状態"
// @Success 200 {object} ReservationResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id}/status [patch]
func (h *ReservationHandler) ChangeStatus(c echo.Context) error {
	userID, isAdmin := middleware.Actor(c)
	var req ChangeReservationStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, api.ErrorResponse{Error: "無効なリクエスト", Code: api.CodeInvalidRequest})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.ChangeStatus(c.Request().Context(), c.Param("id"), reservation.Status(req.Status), userID, isAdmin)
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// Remove godoc
// @Summary 予約を削除
// @Description 予約レコードを物理削除します（空席数は調整されません）
// @Tags reservations
// @Param id path string true "予約ID"
// @Success 204
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) Remove(c echo.Context) error {
	userID, isAdmin := middleware.Actor(c)
	if err := h.service.RemoveReservation(c.Request().Context(), c.Param("id"), userID, isAdmin); err != nil {
		return api.DomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetByID godoc
// @Summary 予約を取得
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	r, err := h.service.GetReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// List godoc
// @Summary 予約一覧を取得
// @Description 管理者は全件、参加者は自分の予約のみ取得します
// @Tags reservations
// @Produce json
// @Success 200 {array} ReservationResponse
// @Router /reservations [get]
func (h *ReservationHandler) List(c echo.Context) error {
	userID, isAdmin := middleware.Actor(c)
	reservations, err := h.service.ListReservations(c.Request().Context(), userID, isAdmin)
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponses(reservations))
}

// GetMyReservations godoc
// @Summary 自分の予約一覧を取得
// @Tags reservations
// @Produce json
// @Success 200 {array} ReservationResponse
// @Router /reservations/my-reservations [get]
func (h *ReservationHandler) GetMyReservations(c echo.Context) error {
	userID, _ := middleware.Actor(c)
	reservations, err := h.service.GetUserReservations(c.Request().Context(), userID)
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponses(reservations))
}

// GetByEvent godoc
// @Summary イベントの予約一覧を取得
// @Description 参加者には確定済みの予約のみ表示されます
// @Tags reservations
// @Produce json
// @Param eventId path string true "イベントID"
// @Success 200 {array} ReservationResponse
// @Failure 404 {object} api.ErrorResponse "イベントが存在しない"
// @Router /reservations/event/{eventId} [get]
func (h *ReservationHandler) GetByEvent(c echo.Context) error {
	_, isAdmin := middleware.Actor(c)
	reservations, err := h.service.GetEventReservations(c.Request().Context(), c.Param("eventId"), isAdmin)
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponses(reservations))
}

// GetStats godoc
// @Summary 予約の状態別集計を取得
// @Tags reservations
// @Produce json
// @Success 200 {object} reservation.Stats
// @Router /reservations/stats/all [get]
func (h *ReservationHandler) GetStats(c echo.Context) error {
	stats, err := h.service.GetStats(c.Request().Context())
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
