package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ElFirdaous28/event-reservation-system/internal/domain/event"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/transaction"
)

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID             string    `db:"id"`
	Title          string    `db:"title"`
	Description    *string   `db:"description"`
	Date           time.Time `db:"date"`
	Location       string    `db:"location"`
	Capacity       int       `db:"capacity"`
	AvailableSeats int       `db:"available_seats"`
	Status         string    `db:"status"`
	CreatedBy      string    `db:"created_by"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	var desc string
	if r.Description != nil {
		desc = *r.Description
	}
	return &event.Event{
		ID:             r.ID,
		Title:          r.Title,
		Description:    desc,
		Date:           r.Date,
		Location:       r.Location,
		Capacity:       r.Capacity,
		AvailableSeats: r.AvailableSeats,
		Status:         event.Status(r.Status),
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

const eventColumns = `id, title, description, date, location, capacity, available_seats, status, created_by, created_at, updated_at`

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `
		INSERT INTO events (title, description, date, location, capacity, available_seats, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	var desc *string
	if e.Description != "" {
		desc = &e.Description
	}

	err := r.db.QueryRowContext(ctx, query,
		e.Title, desc, e.Date, e.Location, e.Capacity, e.AvailableSeats, string(e.Status), e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var row eventRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List はイベント一覧と総件数を取得する
func (r *EventRepository) List(ctx context.Context, filter event.ListFilter) ([]*event.Event, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d)", n, n, n)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM events`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("イベント件数取得に失敗しました: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := `SELECT ` + eventColumns + ` FROM events` + where +
		fmt.Sprintf(` ORDER BY date ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}

	events := make([]*event.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toEntity()
	}
	return events, total, nil
}

// Update はイベントを更新する
// available_seats はここでは更新しない（AdjustAvailableSeats 経由に限る）
func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, date = $3, location = $4, status = $5, updated_at = $6
		WHERE id = $7
	`
	var desc *string
	if e.Description != "" {
		desc = &e.Description
	}

	result, err := r.db.ExecContext(ctx, query,
		e.Title, desc, e.Date, e.Location, string(e.Status), time.Now(), e.ID,
	)
	if err != nil {
		return fmt.Errorf("イベント更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// Delete はイベントを削除する
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("イベント削除に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// AdjustAvailableSeats は空席数をアトミックに加算する
// read-modify-write ではなく単一のUPDATEで適用する（更新ロスト防止）
// CHECK制約により 0..capacity の範囲外になる更新は失敗する
func (r *EventRepository) AdjustAvailableSeats(ctx context.Context, tx transaction.Tx, id string, delta int) error {
	query := `UPDATE events SET available_seats = available_seats + $1, updated_at = NOW() WHERE id = $2`

	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}
	result, err := sqlxTx.ExecContext(ctx, query, delta, id)
	if err != nil {
		// CHECK制約違反 = 0..capacity の範囲外
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23514" {
			return event.ErrInvalidAvailableSeats
		}
		return fmt.Errorf("空席数の調整に失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// SetAvailableSeats は空席数を指定値に設定する（整合性修復用）
func (r *EventRepository) SetAvailableSeats(ctx context.Context, id string, seats int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET available_seats = $1, updated_at = NOW() WHERE id = $2`, seats, id)
	if err != nil {
		return fmt.Errorf("空席数の設定に失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// ListSeatDrift は空席数が「定員 - 確定済み予約数」と一致しないイベントを列挙する
func (r *EventRepository) ListSeatDrift(ctx context.Context) ([]event.SeatDrift, error) {
	query := `
		SELECT e.id, e.available_seats, e.capacity - COUNT(r.id) FILTER (WHERE r.status = 'confirmed') AS expected
		FROM events e
		LEFT JOIN reservations r ON r.event_id = e.id
		GROUP BY e.id, e.available_seats, e.capacity
		HAVING e.available_seats <> e.capacity - COUNT(r.id) FILTER (WHERE r.status = 'confirmed')
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("乖離一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var drifts []event.SeatDrift
	for rows.Next() {
		var d event.SeatDrift
		if err := rows.Scan(&d.EventID, &d.AvailableSeats, &d.Expected); err != nil {
			return nil, fmt.Errorf("乖離行の読み取りに失敗しました: %w", err)
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}

// インターフェースを満たしているか確認
var _ event.Repository = (*EventRepository)(nil)
