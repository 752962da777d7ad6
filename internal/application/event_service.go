package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ElFirdaous28/event-reservation-system/internal/domain/event"
	redisinfra "github.com/ElFirdaous28/event-reservation-system/internal/infrastructure/redis"
	"github.com/ElFirdaous28/event-reservation-system/internal/pkg/logger"
)

// availabilityCacheTTL は空席数キャッシュの有効期限
const availabilityCacheTTL = 30 * time.Second

// EventService はイベントのCRUDと公開状態の管理を担う
// AvailableSeats の書き込みはここでは行わない（予約エンジンが専有する）
type EventService struct {
	eventRepo  event.Repository
	availCache redisinfra.AvailabilityCacheInterface
}

func NewEventService(eventRepo event.Repository, ac redisinfra.AvailabilityCacheInterface) *EventService {
	return &EventService{eventRepo: eventRepo, availCache: ac}
}

type CreateEventInput struct {
	Title       string
	Description string
	Date        time.Time
	Location    string
	Capacity    int
	CreatedBy   string
}

func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (*event.Event, error) {
	e := event.NewEvent(input.Title, input.Description, input.Location, input.Date, input.Capacity, input.CreatedBy)
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return e, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

type ListEventsInput struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// ListEventsOutput はページング情報付きの一覧結果
type ListEventsOutput struct {
	Events     []*event.Event
	Total      int
	Page       int
	TotalPages int
}

// ListEvents はイベント一覧を取得する
// 参加者には公開済みイベントのみ見せる。管理者は状態で絞り込める
func (s *EventService) ListEvents(ctx context.Context, input ListEventsInput, actorIsAdmin bool) (*ListEventsOutput, error) {
	page := input.Page
	if page <= 0 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	filter := event.ListFilter{
		Search: input.Search,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if !actorIsAdmin {
		filter.Status = event.StatusPublished
	} else if input.Status != "" {
		filter.Status = event.Status(input.Status)
		if !filter.Status.IsValid() {
			return nil, event.ErrInvalidEventStatus
		}
	}

	events, total, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit
	return &ListEventsOutput{Events: events, Total: total, Page: page, TotalPages: totalPages}, nil
}

type UpdateEventInput struct {
	ID          string
	Title       string
	Description string
	Date        time.Time
	Location    string
	ActorUserID string
}

// UpdateEvent はイベントの属性を更新する（作成者のみ）
// Capacity と AvailableSeats は更新対象外
func (s *EventService) UpdateEvent(ctx context.Context, input UpdateEventInput) (*event.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if e.CreatedBy != input.ActorUserID {
		return nil, event.ErrNotEventOwner
	}
	e.Title = input.Title
	e.Description = input.Description
	e.Date = input.Date
	e.Location = input.Location
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ChangeEventStatus はイベントの公開状態を変更する（作成者のみ）
func (s *EventService) ChangeEventStatus(ctx context.Context, id string, status event.Status, actorUserID string) (*event.Event, error) {
	if !status.IsValid() {
		return nil, event.ErrInvalidEventStatus
	}
	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.CreatedBy != actorUserID {
		return nil, event.ErrNotEventOwner
	}
	e.Status = status
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEvent はイベントを削除する（作成者のみ）
func (s *EventService) DeleteEvent(ctx context.Context, id, actorUserID string) error {
	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e.CreatedBy != actorUserID {
		return event.ErrNotEventOwner
	}
	return s.eventRepo.Delete(ctx, id)
}

// GetAvailableSeats はイベントの空席数を返す（公開側の参照用）
// キャッシュミス時はDBから読み、短いTTLでキャッシュへ書き戻す
func (s *EventService) GetAvailableSeats(ctx context.Context, id string) (int, error) {
	if s.availCache != nil {
		if count, err := s.availCache.GetAvailableSeats(ctx, id); err == nil {
			return count, nil
		}
	}
	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if s.availCache != nil {
		if err := s.availCache.SetAvailableSeats(ctx, id, e.AvailableSeats, availabilityCacheTTL); err != nil {
			logger.Warn("空席キャッシュの保存に失敗", zap.String("event_id", id), zap.Error(err))
		}
	}
	return e.AvailableSeats, nil
}
