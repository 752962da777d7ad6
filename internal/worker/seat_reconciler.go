package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ElFirdaous28/event-reservation-system/internal/pkg/logger"
)

// SeatReconcilerService は空席カウンタの整合性を修復するインターフェース
type SeatReconcilerService interface {
	ReconcileAvailableSeats(ctx context.Context) (int, error)
}

// SeatReconciler は空席カウンタと確定済み予約数の乖離を
// 定期的に検出・修復するワーカー
// 予約状態の更新と座席調整は単一トランザクションだが、障害復旧や
// 手動データ修正で生じうる乖離の最終防衛として動く
type SeatReconciler struct {
	reservationService SeatReconcilerService
	interval           time.Duration
	stopCh             chan struct{}
	doneCh             chan struct{}
}

// NewSeatReconciler は新しいリコンサイラーを作成
func NewSeatReconciler(rs SeatReconcilerService, interval time.Duration) *SeatReconciler {
	return &SeatReconciler{
		reservationService: rs,
		interval:           interval,
		stopCh:             make(chan struct{}),
		doneCh:             make(chan struct{}),
	}
}

// Start はリコンサイラーを開始
func (r *SeatReconciler) Start(ctx context.Context) {
	logger.Info("空席リコンサイラー開始", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("空席リコンサイラー停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("空席リコンサイラー停止（シグナル受信）")
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// Stop はリコンサイラーを停止
func (r *SeatReconciler) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// reconcile は乖離の検出と修復を1回実行する
func (r *SeatReconciler) reconcile(ctx context.Context) {
	log := logger.Get()
	log.Debug("空席カウンタの整合性チェック開始")

	count, err := r.reservationService.ReconcileAvailableSeats(ctx)
	if err != nil {
		log.Error("空席カウンタの整合性チェック失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("空席カウンタを修復", zap.Int("count", count))
	} else {
		log.Debug("空席カウンタの乖離なし")
	}
}
