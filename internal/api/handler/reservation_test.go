package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ElFirdaous28/event-reservation-system/internal/api"
	"github.com/ElFirdaous28/event-reservation-system/internal/api/middleware"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/event"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/reservation"
)

// MockReservationService はReservationServiceInterfaceのモック
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) CreateReservation(ctx context.Context, eventID, actorUserID string) (*reservation.Reservation, error) {
	args := m.Called(ctx, eventID, actorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) ChangeStatus(ctx context.Context, reservationID string, newStatus reservation.Status, actorUserID string, actorIsAdmin bool) (*reservation.Reservation, error) {
	args := m.Called(ctx, reservationID, newStatus, actorUserID, actorIsAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) RemoveReservation(ctx context.Context, reservationID, actorUserID string, actorIsAdmin bool) error {
	args := m.Called(ctx, reservationID, actorUserID, actorIsAdmin)
	return args.Error(0)
}

func (m *MockReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) ListReservations(ctx context.Context, actorUserID string, actorIsAdmin bool) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, actorUserID, actorIsAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) GetEventReservations(ctx context.Context, eventID string, actorIsAdmin bool) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, eventID, actorIsAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) GetUserReservations(ctx context.Context, userID string) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) GetStats(ctx context.Context) (*reservation.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Stats), args.Error(1)
}

func newActorContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, userID, role string) echo.Context {
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserID, userID)
	c.Set(middleware.ContextRole, role)
	return c
}

func assertErrorCode(t *testing.T, err error, expectedStatus int, expectedCode string) {
	t.Helper()
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, expectedStatus, he.Code)
	body, ok := he.Message.(api.ErrorResponse)
	require.True(t, ok)
	assert.Equal(t, expectedCode, body.Code)
}

func TestReservationHandler_Create(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に予約を作成できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		expected := &reservation.Reservation{
			ID:      "res-123",
			EventID: "event-123",
			UserID:  "user-123",
			Status:  reservation.StatusPending,
		}
		mockService.On("CreateReservation", mock.Anything, "event-123", "user-123").
			Return(expected, nil)

		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"event_id": "event-123"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newActorContext(e, req, rec, "user-123", "participant")

		err := handler.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp ReservationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "res-123", resp.ID)
		assert.Equal(t, "pending", resp.Status)

		mockService.AssertExpectations(t)
	})

	t.Run("イベントIDが空の場合は400", func(t *testing.T) {
		mockService := new(MockReservationService)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newActorContext(e, req, rec, "user-123", "participant")

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
		mockService.AssertNotCalled(t, "CreateReservation")
	})

	t.Run("存在しないイベントは404", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("CreateReservation", mock.Anything, "nonexistent", "user-123").
			Return(nil, event.ErrEventNotFound)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"event_id": "nonexistent"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newActorContext(e, req, rec, "user-123", "participant")

		err := handler.Create(c)

		assertErrorCode(t, err, http.StatusNotFound, api.CodeNotFound)
	})

	t.Run("非公開イベントは422", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("CreateReservation", mock.Anything, "event-123", "user-123").
			Return(nil, event.ErrEventNotPublished)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"event_id": "event-123"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newActorContext(e, req, rec, "user-123", "participant")

		err := handler.Create(c)

		assertErrorCode(t, err, http.StatusUnprocessableEntity, api.CodeInvalidState)
	})

	t.Run("重複予約は409でconflictコード", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("CreateReservation", mock.Anything, "event-123", "user-123").
			Return(nil, reservation.ErrAlreadyReserved)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"event_id": "event-123"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newActorContext(e, req, rec, "user-123", "participant")

		err := handler.Create(c)

		assertErrorCode(t, err, http.StatusConflict, api.CodeConflict)
	})

	t.Run("満席は409でcapacity_exceededコード", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("CreateReservation", mock.Anything, "event-123", "user-123").
			Return(nil, reservation.ErrEventFull)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"event_id": "event-123"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newActorContext(e, req, rec, "user-123", "participant")

		err := handler.Create(c)

		// 同じ409でもコードで重複予約と区別できる
		assertErrorCode(t, err, http.StatusConflict, api.CodeCapacityExceeded)
	})
}

func TestReservationHandler_ChangeStatus(t *testing.T) {
	e := NewTestEcho()

	t.Run("管理者が予約を確定できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		expected := &reservation.Reservation{
			ID:      "res-123",
			EventID: "event-123",
			UserID:  "user-123",
			Status:  reservation.StatusConfirmed,
		}
		mockService.On("ChangeStatus", mock.Anything, "res-123", reservation.StatusConfirmed, "admin-1", true).
			Return(expected, nil)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPatch, "/reservations/res-123/status", strings.NewReader(`{"status": "confirmed"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newActorContext(e, req, rec, "admin-1", "admin")
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		err := handler.ChangeStatus(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp ReservationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "confirmed", resp.Status)
	})

	t.Run("未知の状態は400", func(t *testing.T) {
		mockService := new(MockReservationService)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPatch, "/reservations/res-123/status", strings.NewReader(`{"status": "approved"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newActorContext(e, req, rec, "admin-1", "admin")
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		err := handler.ChangeStatus(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
		mockService.AssertNotCalled(t, "ChangeStatus")
	})

	t.Run("権限のない遷移は403", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("ChangeStatus", mock.Anything, "res-123", reservation.StatusConfirmed, "user-123", false).
			Return(nil, reservation.ErrForbidden)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPatch, "/reservations/res-123/status", strings.NewReader(`{"status": "confirmed"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newActorContext(e, req, rec, "user-123", "participant")
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		err := handler.ChangeStatus(c)

		assertErrorCode(t, err, http.StatusForbidden, api.CodeForbidden)
	})

	t.Run("存在しない予約は404", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("ChangeStatus", mock.Anything, "nonexistent", reservation.StatusCanceled, "user-123", false).
			Return(nil, reservation.ErrReservationNotFound)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPatch, "/reservations/nonexistent/status", strings.NewReader(`{"status": "canceled"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newActorContext(e, req, rec, "user-123", "participant")
		c.SetParamNames("id")
		c.SetParamValues("nonexistent")

		err := handler.ChangeStatus(c)

		assertErrorCode(t, err, http.StatusNotFound, api.CodeNotFound)
	})
}

func TestReservationHandler_Remove(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に削除できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("RemoveReservation", mock.Anything, "res-123", "user-123", false).Return(nil)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodDelete, "/reservations/res-123", nil)
		rec := httptest.NewRecorder()
		c := newActorContext(e, req, rec, "user-123", "participant")
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		err := handler.Remove(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("他人の予約は403", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("RemoveReservation", mock.Anything, "res-123", "other-user", false).
			Return(reservation.ErrForbidden)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodDelete, "/reservations/res-123", nil)
		rec := httptest.NewRecorder()
		c := newActorContext(e, req, rec, "other-user", "participant")
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		err := handler.Remove(c)

		assertErrorCode(t, err, http.StatusForbidden, api.CodeForbidden)
	})
}

func TestReservationHandler_List(t *testing.T) {
	e := NewTestEcho()

	t.Run("一覧を取得できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		reservations := []*reservation.Reservation{
			{ID: "res-1", Status: reservation.StatusPending},
			{ID: "res-2", Status: reservation.StatusConfirmed},
		}
		mockService.On("ListReservations", mock.Anything, "admin-1", true).Return(reservations, nil)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
		rec := httptest.NewRecorder()
		c := newActorContext(e, req, rec, "admin-1", "admin")

		err := handler.List(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []ReservationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp, 2)
	})
}

func TestReservationHandler_GetMyReservations(t *testing.T) {
	e := NewTestEcho()

	mockService := new(MockReservationService)
	own := []*reservation.Reservation{{ID: "res-1", UserID: "user-123"}}
	mockService.On("GetUserReservations", mock.Anything, "user-123").Return(own, nil)
	handler := NewReservationHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/reservations/my-reservations", nil)
	rec := httptest.NewRecorder()
	c := newActorContext(e, req, rec, "user-123", "participant")

	err := handler.GetMyReservations(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReservationHandler_GetByEvent(t *testing.T) {
	e := NewTestEcho()

	t.Run("イベントが存在しない場合は404", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("GetEventReservations", mock.Anything, "nonexistent", false).
			Return(nil, event.ErrEventNotFound)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/reservations/event/nonexistent", nil)
		rec := httptest.NewRecorder()
		c := newActorContext(e, req, rec, "user-123", "participant")
		c.SetParamNames("eventId")
		c.SetParamValues("nonexistent")

		err := handler.GetByEvent(c)

		assertErrorCode(t, err, http.StatusNotFound, api.CodeNotFound)
	})
}

func TestReservationHandler_GetStats(t *testing.T) {
	e := NewTestEcho()

	mockService := new(MockReservationService)
	stats := &reservation.Stats{Total: 10, Pending: 3, Confirmed: 5, Refused: 1, Canceled: 1}
	mockService.On("GetStats", mock.Anything).Return(stats, nil)
	handler := NewReservationHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/reservations/stats/all", nil)
	rec := httptest.NewRecorder()
	c := newActorContext(e, req, rec, "admin-1", "admin")

	err := handler.GetStats(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp reservation.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.Total)
	assert.Equal(t, 5, resp.Confirmed)
}
