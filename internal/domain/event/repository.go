package event

import (
	"context"

	"github.com/ElFirdaous28/event-reservation-system/internal/domain/transaction"
)

// ListFilter はイベント一覧取得の絞り込み条件
type ListFilter struct {
	Status Status // 空の場合は全状態
	Search string // タイトル・説明・場所の部分一致
	Limit  int
	Offset int
}

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する
	Create(ctx context.Context, event *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// List はイベント一覧と総件数を取得する
	List(ctx context.Context, filter ListFilter) ([]*Event, int, error)

	// Update はイベントを更新する（AvailableSeats は対象外）
	Update(ctx context.Context, event *Event) error

	// Delete はイベントを削除する
	Delete(ctx context.Context, id string) error

	// AdjustAvailableSeats は空席数にデルタを加算する
	// ストレージ層の単一のアトミックな加算として実行すること
	// エンジン側での read-modify-write は禁止（更新ロスト防止）
	AdjustAvailableSeats(ctx context.Context, tx transaction.Tx, id string, delta int) error

	// SetAvailableSeats は空席数を指定値に設定する（整合性修復用）
	SetAvailableSeats(ctx context.Context, id string, seats int) error

	// ListSeatDrift は空席数が「定員 - 確定済み予約数」と一致しない
	// イベントを列挙する（整合性修復ワーカー用）
	ListSeatDrift(ctx context.Context) ([]SeatDrift, error)
}

// SeatDrift は空席カウンタの乖離を表す
type SeatDrift struct {
	EventID        string
	AvailableSeats int
	Expected       int
}
