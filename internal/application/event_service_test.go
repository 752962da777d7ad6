package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ElFirdaous28/event-reservation-system/internal/domain/event"
	redisinfra "github.com/ElFirdaous28/event-reservation-system/internal/infrastructure/redis"
)

func newEventServiceDeps() (*MockEventRepository, *MockAvailabilityCache, *EventService) {
	eventRepo := new(MockEventRepository)
	availCache := new(MockAvailabilityCache)
	return eventRepo, availCache, NewEventService(eventRepo, availCache)
}

func TestEventService_CreateEvent(t *testing.T) {
	t.Run("正常にイベントを作成できる", func(t *testing.T) {
		eventRepo, _, service := newEventServiceDeps()
		ctx := context.Background()

		eventRepo.On("Create", ctx, mock.AnythingOfType("*event.Event")).Return(nil)

		input := CreateEventInput{
			Title:     "新作発表会",
			Location:  "幕張メッセ",
			Date:      time.Now().Add(7 * 24 * time.Hour),
			Capacity:  200,
			CreatedBy: "admin-1",
		}
		result, err := service.CreateEvent(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, "新作発表会", result.Title)
		assert.Equal(t, 200, result.Capacity)
		// 空席数は定員で初期化され、状態は下書き
		assert.Equal(t, 200, result.AvailableSeats)
		assert.Equal(t, event.StatusDraft, result.Status)
	})

	t.Run("定員が不正な場合はエラー", func(t *testing.T) {
		eventRepo, _, service := newEventServiceDeps()
		ctx := context.Background()

		input := CreateEventInput{
			Title:     "新作発表会",
			Location:  "幕張メッセ",
			Capacity:  0,
			CreatedBy: "admin-1",
		}
		result, err := service.CreateEvent(ctx, input)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, event.ErrInvalidCapacity))
		eventRepo.AssertNotCalled(t, "Create")
	})
}

func TestEventService_ListEvents(t *testing.T) {
	t.Run("参加者には公開済みのみ", func(t *testing.T) {
		eventRepo, _, service := newEventServiceDeps()
		ctx := context.Background()

		expectedFilter := event.ListFilter{
			Status: event.StatusPublished,
			Limit:  10,
			Offset: 0,
		}
		eventRepo.On("List", ctx, expectedFilter).Return([]*event.Event{}, 0, nil)

		result, err := service.ListEvents(ctx, ListEventsInput{}, false)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		eventRepo.AssertExpectations(t)
	})

	t.Run("管理者は状態で絞り込める", func(t *testing.T) {
		eventRepo, _, service := newEventServiceDeps()
		ctx := context.Background()

		expectedFilter := event.ListFilter{
			Status: event.StatusDraft,
			Limit:  10,
			Offset: 0,
		}
		eventRepo.On("List", ctx, expectedFilter).Return([]*event.Event{{ID: "event-1"}}, 1, nil)

		result, err := service.ListEvents(ctx, ListEventsInput{Status: "draft"}, true)

		require.NoError(t, err)
		assert.Len(t, result.Events, 1)
	})

	t.Run("不正な状態フィルタはエラー", func(t *testing.T) {
		eventRepo, _, service := newEventServiceDeps()
		ctx := context.Background()

		result, err := service.ListEvents(ctx, ListEventsInput{Status: "archived"}, true)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, event.ErrInvalidEventStatus))
		eventRepo.AssertNotCalled(t, "List")
	})

	t.Run("ページングが計算される", func(t *testing.T) {
		eventRepo, _, service := newEventServiceDeps()
		ctx := context.Background()

		expectedFilter := event.ListFilter{
			Status: event.StatusPublished,
			Limit:  10,
			Offset: 10,
		}
		eventRepo.On("List", ctx, expectedFilter).Return([]*event.Event{}, 25, nil)

		result, err := service.ListEvents(ctx, ListEventsInput{Page: 2, Limit: 10}, false)

		require.NoError(t, err)
		assert.Equal(t, 25, result.Total)
		assert.Equal(t, 2, result.Page)
		assert.Equal(t, 3, result.TotalPages)
	})
}

func TestEventService_UpdateEvent(t *testing.T) {
	t.Run("作成者以外は更新できない", func(t *testing.T) {
		eventRepo, _, service := newEventServiceDeps()
		ctx := context.Background()

		existing := &event.Event{
			ID:             "event-1",
			Title:          "元のタイトル",
			Location:       "代々木体育館",
			Capacity:       100,
			AvailableSeats: 100,
			Status:         event.StatusDraft,
			CreatedBy:      "owner-1",
		}
		eventRepo.On("GetByID", ctx, "event-1").Return(existing, nil)

		result, err := service.UpdateEvent(ctx, UpdateEventInput{
			ID:          "event-1",
			Title:       "変更後のタイトル",
			Location:    "代々木体育館",
			ActorUserID: "other-user",
		})

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, event.ErrNotEventOwner))
		eventRepo.AssertNotCalled(t, "Update")
	})

	t.Run("作成者は更新できる", func(t *testing.T) {
		eventRepo, _, service := newEventServiceDeps()
		ctx := context.Background()

		existing := &event.Event{
			ID:             "event-1",
			Title:          "元のタイトル",
			Location:       "代々木体育館",
			Capacity:       100,
			AvailableSeats: 80,
			Status:         event.StatusPublished,
			CreatedBy:      "owner-1",
		}
		eventRepo.On("GetByID", ctx, "event-1").Return(existing, nil)
		eventRepo.On("Update", ctx, mock.AnythingOfType("*event.Event")).Return(nil)

		result, err := service.UpdateEvent(ctx, UpdateEventInput{
			ID:          "event-1",
			Title:       "変更後のタイトル",
			Location:    "横浜アリーナ",
			Date:        time.Now().Add(48 * time.Hour),
			ActorUserID: "owner-1",
		})

		require.NoError(t, err)
		assert.Equal(t, "変更後のタイトル", result.Title)
		assert.Equal(t, "横浜アリーナ", result.Location)
		// 定員と空席数は変わらない
		assert.Equal(t, 100, result.Capacity)
		assert.Equal(t, 80, result.AvailableSeats)
	})
}

func TestEventService_ChangeEventStatus(t *testing.T) {
	t.Run("作成者は公開できる", func(t *testing.T) {
		eventRepo, _, service := newEventServiceDeps()
		ctx := context.Background()

		existing := &event.Event{
			ID:             "event-1",
			Title:          "テストイベント",
			Location:       "京セラドーム",
			Capacity:       100,
			AvailableSeats: 100,
			Status:         event.StatusDraft,
			CreatedBy:      "owner-1",
		}
		eventRepo.On("GetByID", ctx, "event-1").Return(existing, nil)
		eventRepo.On("Update", ctx, mock.AnythingOfType("*event.Event")).Return(nil)

		result, err := service.ChangeEventStatus(ctx, "event-1", event.StatusPublished, "owner-1")

		require.NoError(t, err)
		assert.Equal(t, event.StatusPublished, result.Status)
	})

	t.Run("不正な状態はエラー", func(t *testing.T) {
		eventRepo, _, service := newEventServiceDeps()
		ctx := context.Background()

		result, err := service.ChangeEventStatus(ctx, "event-1", event.Status("archived"), "owner-1")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, event.ErrInvalidEventStatus))
		eventRepo.AssertNotCalled(t, "GetByID")
	})
}

func TestEventService_DeleteEvent(t *testing.T) {
	t.Run("作成者以外は削除できない", func(t *testing.T) {
		eventRepo, _, service := newEventServiceDeps()
		ctx := context.Background()

		existing := &event.Event{ID: "event-1", CreatedBy: "owner-1"}
		eventRepo.On("GetByID", ctx, "event-1").Return(existing, nil)

		err := service.DeleteEvent(ctx, "event-1", "other-user")

		require.Error(t, err)
		assert.True(t, errors.Is(err, event.ErrNotEventOwner))
		eventRepo.AssertNotCalled(t, "Delete")
	})
}

func TestEventService_GetAvailableSeats(t *testing.T) {
	t.Run("キャッシュヒット時はDBに触れない", func(t *testing.T) {
		eventRepo, availCache, service := newEventServiceDeps()
		ctx := context.Background()

		availCache.On("GetAvailableSeats", ctx, "event-1").Return(42, nil)

		count, err := service.GetAvailableSeats(ctx, "event-1")

		require.NoError(t, err)
		assert.Equal(t, 42, count)
		eventRepo.AssertNotCalled(t, "GetByID")
	})

	t.Run("キャッシュミス時はDBから読んで書き戻す", func(t *testing.T) {
		eventRepo, availCache, service := newEventServiceDeps()
		ctx := context.Background()

		availCache.On("GetAvailableSeats", ctx, "event-1").Return(0, redisinfra.ErrCacheMiss)
		eventRepo.On("GetByID", ctx, "event-1").
			Return(&event.Event{ID: "event-1", AvailableSeats: 75}, nil)
		availCache.On("SetAvailableSeats", ctx, "event-1", 75, availabilityCacheTTL).Return(nil)

		count, err := service.GetAvailableSeats(ctx, "event-1")

		require.NoError(t, err)
		assert.Equal(t, 75, count)
		availCache.AssertExpectations(t)
	})

	t.Run("イベントが存在しない", func(t *testing.T) {
		eventRepo, availCache, service := newEventServiceDeps()
		ctx := context.Background()

		availCache.On("GetAvailableSeats", ctx, "nonexistent").Return(0, redisinfra.ErrCacheMiss)
		eventRepo.On("GetByID", ctx, "nonexistent").Return(nil, event.ErrEventNotFound)

		count, err := service.GetAvailableSeats(ctx, "nonexistent")

		require.Error(t, err)
		assert.Equal(t, 0, count)
		assert.True(t, errors.Is(err, event.ErrEventNotFound))
	})
}
