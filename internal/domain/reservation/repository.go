package reservation

import (
	"context"

	"github.com/ElFirdaous28/event-reservation-system/internal/domain/transaction"
)

// Stats は予約の状態別集計を表す
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Refused   int `json:"refused"`
	Canceled  int `json:"canceled"`
}

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する
	// (user_id, event_id) の有効な予約に対する一意制約違反は
	// ErrAlreadyReserved として返すこと
	Create(ctx context.Context, res *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// GetAll は全予約を取得する（管理者向け、作成日時降順）
	GetAll(ctx context.Context) ([]*Reservation, error)

	// GetByEventID はイベントの予約一覧を取得する
	// statuses が空でない場合は状態で絞り込む
	GetByEventID(ctx context.Context, eventID string, statuses []Status) ([]*Reservation, error)

	// GetByUserID はユーザーの予約一覧を取得する
	GetByUserID(ctx context.Context, userID string) ([]*Reservation, error)

	// GetActiveByUserAndEvent は (user, event) の有効な予約を取得する
	GetActiveByUserAndEvent(ctx context.Context, userID, eventID string) (*Reservation, error)

	// CountByEvent はイベントの予約数を返す
	// statuses が空でない場合は状態で絞り込む（入場判定は ActiveStatuses を渡す）
	CountByEvent(ctx context.Context, eventID string, statuses []Status) (int, error)

	// UpdateStatus は予約の状態を更新する（トランザクション必須）
	UpdateStatus(ctx context.Context, tx transaction.Tx, id string, status Status) error

	// Delete は予約を物理削除する
	Delete(ctx context.Context, id string) error

	// GetStats は状態別の予約数を集計する
	GetStats(ctx context.Context) (*Stats, error)
}
