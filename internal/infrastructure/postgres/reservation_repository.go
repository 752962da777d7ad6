package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ElFirdaous28/event-reservation-system/internal/domain/reservation"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/transaction"
)

type reservationRow struct {
	ID        string    `db:"id"`
	EventID   string    `db:"event_id"`
	UserID    string    `db:"user_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		ID:        row.ID,
		EventID:   row.EventID,
		UserID:    row.UserID,
		Status:    reservation.Status(row.Status),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

const reservationColumns = `id, event_id, user_id, status, created_at, updated_at`

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create は新しい予約を作成する
// 有効な予約の部分一意インデックス違反は ErrAlreadyReserved に変換する
func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	query := `INSERT INTO reservations (event_id, user_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, res.EventID, res.UserID, string(res.Status), res.CreatedAt, res.UpdatedAt).Scan(&res.ID); err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return reservation.ErrAlreadyReserved
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) GetAll(ctx context.Context) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	return toEntities(rows), nil
}

func (r *ReservationRepository) GetByEventID(ctx context.Context, eventID string, statuses []reservation.Status) ([]*reservation.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE event_id = $1`
	args := []interface{}{eventID}
	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(statusStrings(statuses)))
	}
	query += ` ORDER BY created_at DESC`

	var rows []reservationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("イベント予約一覧取得に失敗: %w", err)
	}
	return toEntities(rows), nil
}

func (r *ReservationRepository) GetByUserID(ctx context.Context, userID string) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("ユーザー予約一覧取得に失敗: %w", err)
	}
	return toEntities(rows), nil
}

func (r *ReservationRepository) GetActiveByUserAndEvent(ctx context.Context, userID, eventID string) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 AND event_id = $2 AND status = ANY($3) LIMIT 1`
	err := r.db.GetContext(ctx, &row, query, userID, eventID, pq.Array(statusStrings(reservation.ActiveStatuses)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("有効予約の取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) CountByEvent(ctx context.Context, eventID string, statuses []reservation.Status) (int, error) {
	query := `SELECT COUNT(*) FROM reservations WHERE event_id = $1`
	args := []interface{}{eventID}
	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(statusStrings(statuses)))
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("予約数の取得に失敗: %w", err)
	}
	return count, nil
}

// UpdateStatus は予約の状態を更新する（トランザクション必須）
func (r *ReservationRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, id string, status reservation.Status) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}
	result, err := sqlxTx.ExecContext(ctx,
		`UPDATE reservations SET status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("予約状態の更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("予約削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

// GetStats は状態別の予約数を1クエリで集計する
func (r *ReservationRepository) GetStats(ctx context.Context) (*reservation.Stats, error) {
	query := `SELECT status, COUNT(*) FROM reservations GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("予約集計に失敗: %w", err)
	}
	defer rows.Close()

	stats := &reservation.Stats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("集計行の読み取りに失敗: %w", err)
		}
		stats.Total += count
		switch reservation.Status(status) {
		case reservation.StatusPending:
			stats.Pending = count
		case reservation.StatusConfirmed:
			stats.Confirmed = count
		case reservation.StatusRefused:
			stats.Refused = count
		case reservation.StatusCanceled:
			stats.Canceled = count
		}
	}
	return stats, rows.Err()
}

func toEntities(rows []reservationRow) []*reservation.Reservation {
	result := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result
}

func statusStrings(statuses []reservation.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

var _ reservation.Repository = (*ReservationRepository)(nil)
