package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ElFirdaous28/event-reservation-system/internal/api"
	"github.com/ElFirdaous28/event-reservation-system/internal/api/middleware"
	"github.com/ElFirdaous28/event-reservation-system/internal/application"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/event"
)

type EventHandler struct {
	eventService EventServiceInterface
}

func NewEventHandler(eventService EventServiceInterface) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type CreateEventRequest struct {
	Title       string `json:"title" validate:"required" example:"Go Conference 2026"`
	Description string `json:"description" example:"年次カンファレンス"`
	Date        string `json:"date" validate:"required" example:"2026-10-01T10:00:00+09:00"`
	Location    string `json:"location" validate:"required" example:"Casablanca"`
	Capacity    int    `json:"capacity" validate:"required,gt=0" example:"200"`
}

type UpdateEventRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Date        string `json:"date" validate:"required"`
	Location    string `json:"location" validate:"required"`
}

type ChangeEventStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft published canceled" example:"published"`
}

type EventResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Date           string `json:"date"`
	Location       string `json:"location"`
	Capacity       int    `json:"capacity"`
	AvailableSeats int    `json:"available_seats"`
	Status         string `json:"status"`
	CreatedBy      string `json:"created_by"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type ListEventsResponse struct {
	Events     []EventResponse `json:"events"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
}

func toEventResponse(e *event.Event) EventResponse {
	return EventResponse{
		ID:             e.ID,
		Title:          e.Title,
		Description:    e.Description,
		Date:           e.Date.Format(time.RFC3339),
		Location:       e.Location,
		Capacity:       e.Capacity,
		AvailableSeats: e.AvailableSeats,
		Status:         string(e.Status),
		CreatedBy:      e.CreatedBy,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      e.UpdatedAt.Format(time.RFC3339),
	}
}

// Create godoc
// @Summary イベントを作成
// @Description 新しいイベントを下書き状態で作成します（管理者のみ）
// @Tags events
// @Accept json
// @Produce json
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} EventResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	userID, _ := middleware.Actor(c)
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, api.ErrorResponse{Error: "無効なリクエスト", Code: api.CodeInvalidRequest})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, api.ErrorResponse{Error: "開催日時の形式が不正です", Code: api.CodeInvalidRequest})
	}

	e, err := h.eventService.CreateEvent(c.Request().Context(), application.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Location:    req.Location,
		Capacity:    req.Capacity,
		CreatedBy:   userID,
	})
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// GetByID godoc
// @Summary イベントを取得
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	e, err := h.eventService.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// List godoc
// @Summary イベント一覧を取得
// @Description 参加者には公開済みイベントのみ表示されます
// @Tags events
// @Produce json
// @Param status query string false "状態フィルタ（管理者のみ）"
// @Param search query string false "検索キーワード"
// @Param page query int false "ページ番号" default(1)
// @Param limit query int false "取得件数" default(10)
// @Success 200 {object} ListEventsResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	_, isAdmin := middleware.Actor(c)
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	out, err := h.eventService.ListEvents(c.Request().Context(), application.ListEventsInput{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
		Page:   page,
		Limit:  limit,
	}, isAdmin)
	if err != nil {
		return api.DomainError(err)
	}

	events := make([]EventResponse, len(out.Events))
	for i, e := range out.Events {
		events[i] = toEventResponse(e)
	}
	return c.JSON(http.StatusOK, ListEventsResponse{
		Events:     events,
		Total:      out.Total,
		Page:       out.Page,
		TotalPages: out.TotalPages,
	})
}

// Update godoc
// @Summary イベントを更新
// @Description イベントの属性を更新します（作成者のみ、定員と空席数は変更不可）
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "イベントID"
// @Param request body UpdateEventRequest true "イベント情報"
// @Success 200 {object} EventResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	userID, _ := middleware.Actor(c)
	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, api.ErrorResponse{Error: "無効なリクエスト", Code: api.CodeInvalidRequest})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, api.ErrorResponse{Error: "開催日時の形式が不正です", Code: api.CodeInvalidRequest})
	}

	e, err := h.eventService.UpdateEvent(c.Request().Context(), application.UpdateEventInput{
		ID:          c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Location:    req.Location,
		ActorUserID: userID,
	})
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// ChangeStatus godoc
// @Summary イベントの公開状態を変更
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "イベントID"
// @Param request body ChangeEventStatusRequest true "新しい状態"
// @Success 200 {object} EventResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id}/status [patch]
func (h *EventHandler) ChangeStatus(c echo.Context) error {
	userID, _ := middleware.Actor(c)
	var req ChangeEventStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, api.ErrorResponse{Error: "無効なリクエスト", Code: api.CodeInvalidRequest})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	e, err := h.eventService.ChangeEventStatus(c.Request().Context(), c.Param("id"), event.Status(req.Status), userID)
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// Delete godoc
// @Summary イベントを削除
// @Tags events
// @Param id path string true "イベントID"
// @Success 204
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	userID, _ := middleware.Actor(c)
	if err := h.eventService.DeleteEvent(c.Request().Context(), c.Param("id"), userID); err != nil {
		return api.DomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetAvailability godoc
// @Summary イベントの空席数を取得
// @Description 短いTTLのキャッシュを経由して空席数を返します
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} map[string]int
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id}/availability [get]
func (h *EventHandler) GetAvailability(c echo.Context) error {
	count, err := h.eventService.GetAvailableSeats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"available_seats": count})
}
