package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ElFirdaous28/event-reservation-system/internal/domain/event"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/reservation"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/transaction"
	"github.com/ElFirdaous28/event-reservation-system/internal/infrastructure/rabbitmq"
	redislock "github.com/ElFirdaous28/event-reservation-system/internal/infrastructure/redis"
	"github.com/ElFirdaous28/event-reservation-system/internal/pkg/logger"
	"github.com/ElFirdaous28/event-reservation-system/internal/pkg/metrics"
)

// ReservationEventPublisher は予約イベントの発行インターフェース
// 発行はベストエフォートであり、失敗してもリクエストは失敗しない
type ReservationEventPublisher interface {
	PublishReservationEvent(ctx context.Context, event rabbitmq.ReservationEvent) error
}

// ReservationService は予約ライフサイクルエンジン
// Reservation.Status と Event.AvailableSeats の書き込み経路を専有する
type ReservationService struct {
	txManager       transaction.Manager
	reservationRepo reservation.Repository
	eventRepo       event.Repository
	lockManager     redislock.LockManagerInterface
	availCache      redislock.AvailabilityCacheInterface
	publisher       ReservationEventPublisher
	metrics         *metrics.Metrics
}

func NewReservationService(
	txm transaction.Manager,
	rr reservation.Repository,
	er event.Repository,
	lm redislock.LockManagerInterface,
	ac redislock.AvailabilityCacheInterface,
	pub ReservationEventPublisher,
	m *metrics.Metrics,
) *ReservationService {
	return &ReservationService{
		txManager:       txm,
		reservationRepo: rr,
		eventRepo:       er,
		lockManager:     lm,
		availCache:      ac,
		publisher:       pub,
		metrics:         m,
	}
}

// CreateReservation は対象イベントへの新規予約を作成する
// 検証順序: イベント存在 → 公開状態 → 重複予約 → 定員
// 重複チェックと定員チェックは挿入と合わせてイベント単位の分散ロックで
// 直列化し、さらにDBの部分一意インデックスで重複を最終防衛する
// 作成時は席を消費しない（席は確定時にのみ消費される）
func (s *ReservationService) CreateReservation(ctx context.Context, eventID, actorUserID string) (*reservation.Reservation, error) {
	// イベント単位のロックで check+insert を直列化
	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, "event:"+eventID, 5*time.Second, 3, 100*time.Millisecond)
		if err != nil {
			if errors.Is(err, redislock.ErrLockNotAcquired) {
				s.recordOperation("create", "lock_failed")
				return nil, fmt.Errorf("イベントが他のリクエストで処理中です: %w", err)
			}
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer lock.Release(ctx)
	}

	// イベント確認
	ev, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		s.recordOperation("create", "not_found")
		return nil, err
	}
	if !ev.IsPublished() {
		s.recordOperation("create", "invalid_state")
		return nil, event.ErrEventNotPublished
	}

	// 同一 (user, event) の有効な予約は最大1件
	_, err = s.reservationRepo.GetActiveByUserAndEvent(ctx, actorUserID, eventID)
	if err == nil {
		s.recordOperation("create", "conflict")
		return nil, reservation.ErrAlreadyReserved
	}
	if !errors.Is(err, reservation.ErrReservationNotFound) {
		return nil, fmt.Errorf("重複予約チェックに失敗: %w", err)
	}

	// 入場判定: 有効な予約数と定員の比較
	// AvailableSeats カウンタ（確定済みのみを追跡）とは独立した判定
	count, err := s.reservationRepo.CountByEvent(ctx, eventID, reservation.ActiveStatuses)
	if err != nil {
		return nil, fmt.Errorf("予約数の取得に失敗: %w", err)
	}
	if count >= ev.Capacity {
		s.recordOperation("create", "full")
		return nil, reservation.ErrEventFull
	}

	// 予約作成（初期状態は保留中、空席数には触れない）
	res := reservation.NewReservation(eventID, actorUserID)
	if err := res.Validate(); err != nil {
		return nil, err
	}
	if err := s.reservationRepo.Create(ctx, res); err != nil {
		if errors.Is(err, reservation.ErrAlreadyReserved) {
			s.recordOperation("create", "conflict")
		}
		return nil, err
	}

	s.recordOperation("create", "success")
	s.publish(ctx, res, "")
	return res, nil
}

// ChangeStatus は予約の状態を遷移させる
// 認可はアクセスポリシーに委譲し、confirmed 境界を跨ぐ遷移でのみ
// 空席数デルタを適用する。状態更新とデルタ適用は単一トランザクション
func (s *ReservationService) ChangeStatus(ctx context.Context, reservationID string, newStatus reservation.Status, actorUserID string, actorIsAdmin bool) (*reservation.Reservation, error) {
	if !newStatus.IsValid() {
		return nil, reservation.ErrInvalidStatus
	}

	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		s.recordOperation("change_status", "not_found")
		return nil, err
	}

	owns := res.UserID == actorUserID
	if !reservation.CanTransition(actorIsAdmin, owns, newStatus) {
		s.recordOperation("change_status", "forbidden")
		return nil, reservation.ErrForbidden
	}

	oldStatus := res.Status
	delta := reservation.SeatDelta(oldStatus, newStatus)

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// デルタはストレージ層のアトミックな加算として同一トランザクション内で適用
	if delta != 0 {
		if err := s.eventRepo.AdjustAvailableSeats(ctx, tx, res.EventID, delta); err != nil {
			return nil, err
		}
	}
	if err := s.reservationRepo.UpdateStatus(ctx, tx, res.ID, newStatus); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	res.Status = newStatus
	res.UpdatedAt = time.Now()

	if delta != 0 {
		if s.metrics != nil {
			s.metrics.RecordSeatAdjustment(delta)
		}
		s.invalidateCache(ctx, res.EventID)
	}
	s.recordOperation("change_status", "success")
	s.publish(ctx, res, oldStatus)
	return res, nil
}

// RemoveReservation は予約レコードを物理削除する
// 管理者または所有者のみ。削除は管理上のクリーンアップであり
// 状態遷移ではないため空席数は調整しない
func (s *ReservationService) RemoveReservation(ctx context.Context, reservationID, actorUserID string, actorIsAdmin bool) error {
	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		s.recordOperation("remove", "not_found")
		return err
	}
	if !reservation.CanRemove(actorIsAdmin, res.UserID == actorUserID) {
		s.recordOperation("remove", "forbidden")
		return reservation.ErrForbidden
	}
	if err := s.reservationRepo.Delete(ctx, reservationID); err != nil {
		return err
	}
	s.recordOperation("remove", "success")
	return nil
}

// GetReservation はIDから予約を取得する
func (s *ReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

// ListReservations は予約一覧を取得する
// 管理者は全件、参加者は自分の予約のみ
func (s *ReservationService) ListReservations(ctx context.Context, actorUserID string, actorIsAdmin bool) ([]*reservation.Reservation, error) {
	if actorIsAdmin {
		return s.reservationRepo.GetAll(ctx)
	}
	return s.reservationRepo.GetByUserID(ctx, actorUserID)
}

// GetEventReservations はイベントの予約一覧を取得する
// イベントの存在を先に確認する。参加者には確定済みのみ見せる
func (s *ReservationService) GetEventReservations(ctx context.Context, eventID string, actorIsAdmin bool) ([]*reservation.Reservation, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	var statuses []reservation.Status
	if !actorIsAdmin {
		statuses = []reservation.Status{reservation.StatusConfirmed}
	}
	return s.reservationRepo.GetByEventID(ctx, eventID, statuses)
}

// GetUserReservations はユーザー自身の予約一覧を取得する
func (s *ReservationService) GetUserReservations(ctx context.Context, userID string) ([]*reservation.Reservation, error) {
	return s.reservationRepo.GetByUserID(ctx, userID)
}

// GetStats は状態別の予約数集計を返す
func (s *ReservationService) GetStats(ctx context.Context) (*reservation.Stats, error) {
	return s.reservationRepo.GetStats(ctx)
}

// ReconcileAvailableSeats は空席カウンタの乖離を検出して修復する
// 「定員 - 確定済み予約数」を正とし、修復した件数を返す
func (s *ReservationService) ReconcileAvailableSeats(ctx context.Context) (int, error) {
	drifts, err := s.eventRepo.ListSeatDrift(ctx)
	if err != nil {
		return 0, fmt.Errorf("乖離の検出に失敗: %w", err)
	}
	repaired := 0
	for _, d := range drifts {
		if err := s.eventRepo.SetAvailableSeats(ctx, d.EventID, d.Expected); err != nil {
			return repaired, fmt.Errorf("空席数の修復に失敗: %w", err)
		}
		logger.Warn("空席カウンタの乖離を修復",
			zap.String("event_id", d.EventID),
			zap.Int("actual", d.AvailableSeats),
			zap.Int("expected", d.Expected),
		)
		s.invalidateCache(ctx, d.EventID)
		if s.metrics != nil {
			s.metrics.SetAvailableSeats(d.EventID, d.Expected)
		}
		repaired++
	}
	return repaired, nil
}

func (s *ReservationService) recordOperation(operation, result string) {
	if s.metrics != nil {
		s.metrics.RecordReservationOperation(operation, result)
	}
}

func (s *ReservationService) invalidateCache(ctx context.Context, eventID string) {
	if s.availCache == nil {
		return
	}
	if err := s.availCache.Invalidate(ctx, eventID); err != nil {
		logger.Warn("空席キャッシュの無効化に失敗", zap.String("event_id", eventID), zap.Error(err))
	}
}

func (s *ReservationService) publish(ctx context.Context, res *reservation.Reservation, oldStatus reservation.Status) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishReservationEvent(ctx, rabbitmq.ReservationEvent{
		ReservationID: res.ID,
		EventID:       res.EventID,
		UserID:        res.UserID,
		OldStatus:     string(oldStatus),
		NewStatus:     string(res.Status),
	})
	if err != nil {
		logger.Warn("予約イベントの発行に失敗", zap.String("reservation_id", res.ID), zap.Error(err))
	}
}
