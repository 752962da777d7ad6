package event

import "time"

// Status はイベントの状態を表す
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusCanceled  Status = "canceled"
)

// IsValid は既知のイベント状態かを返す
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusCanceled:
		return true
	}
	return false
}

// Event はイベントエンティティを表す
// Capacity は作成後不変。AvailableSeats は確定済み予約数との差分として
// インクリメンタルに維持される（常に 0 <= AvailableSeats <= Capacity）
type Event struct {
	ID             string
	Title          string
	Description    string
	Date           time.Time
	Location       string
	Capacity       int
	AvailableSeats int
	Status         Status
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewEvent は新しいイベントを作成する
// 空席数は定員と同じ値で初期化され、状態は下書きから始まる
func NewEvent(title, description, location string, date time.Time, capacity int, createdBy string) *Event {
	now := time.Now()
	return &Event{
		Title:          title,
		Description:    description,
		Date:           date,
		Location:       location,
		Capacity:       capacity,
		AvailableSeats: capacity,
		Status:         StatusDraft,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsPublished は予約を受け付けられる状態かを返す
func (e *Event) IsPublished() bool {
	return e.Status == StatusPublished
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Title == "" {
		return ErrEventTitleRequired
	}
	if e.Location == "" {
		return ErrEventLocationRequired
	}
	if e.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if e.AvailableSeats < 0 || e.AvailableSeats > e.Capacity {
		return ErrInvalidAvailableSeats
	}
	if !e.Status.IsValid() {
		return ErrInvalidEventStatus
	}
	return nil
}
