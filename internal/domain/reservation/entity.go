package reservation

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRefused   Status = "refused"
	StatusCanceled  Status = "canceled"
)

// ActiveStatuses は席を主張しうる予約状態（保留中・確定済み）
// (user, event) の重複チェックと定員チェックはこの集合を対象とする
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

// IsValid は既知の予約状態かを返す
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRefused, StatusCanceled:
		return true
	}
	return false
}

// IsActive は席を主張しうる状態かを返す
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Reservation は予約エンティティを表す
// Status の書き込みは予約ライフサイクルエンジン経由に限る
type Reservation struct {
	ID        string
	EventID   string
	UserID    string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewReservation は新しい予約を作成する
// 初期状態は常に保留中。作成時点では空席数に触れない
func NewReservation(eventID, userID string) *Reservation {
	now := time.Now()
	return &Reservation{
		EventID:   eventID,
		UserID:    userID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.EventID == "" {
		return ErrEventIDRequired
	}
	if r.UserID == "" {
		return ErrUserIDRequired
	}
	if !r.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// SeatDelta は状態遷移に伴う空席数の増減を返す
// confirmed から離れる遷移は +1、confirmed へ入る遷移は -1、
// confirmed 境界を跨がない遷移（同一状態への遷移を含む）は 0
// 将来の状態機械はこの計算に触れずに上位へ重ねられる
func SeatDelta(from, to Status) int {
	switch {
	case from == StatusConfirmed && to != StatusConfirmed:
		return 1
	case from != StatusConfirmed && to == StatusConfirmed:
		return -1
	default:
		return 0
	}
}
