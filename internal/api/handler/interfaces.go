package handler

import (
	"context"

	"github.com/ElFirdaous28/event-reservation-system/internal/application"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/event"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/reservation"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/user"
)

// AuthServiceInterface は認証サービスのインターフェース
type AuthServiceInterface interface {
	Register(ctx context.Context, input application.RegisterInput) (*user.User, error)
	Login(ctx context.Context, email, password string) (*application.LoginOutput, error)
	GetProfile(ctx context.Context, userID string) (*user.User, error)
}

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvents(ctx context.Context, input application.ListEventsInput, actorIsAdmin bool) (*application.ListEventsOutput, error)
	UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error)
	ChangeEventStatus(ctx context.Context, id string, status event.Status, actorUserID string) (*event.Event, error)
	DeleteEvent(ctx context.Context, id, actorUserID string) error
	GetAvailableSeats(ctx context.Context, id string) (int, error)
}

// ReservationServiceInterface は予約ライフサイクルエンジンのインターフェース
type ReservationServiceInterface interface {
	CreateReservation(ctx context.Context, eventID, actorUserID string) (*reservation.Reservation, error)
	ChangeStatus(ctx context.Context, reservationID string, newStatus reservation.Status, actorUserID string, actorIsAdmin bool) (*reservation.Reservation, error)
	RemoveReservation(ctx context.Context, reservationID, actorUserID string, actorIsAdmin bool) error
	GetReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	ListReservations(ctx context.Context, actorUserID string, actorIsAdmin bool) ([]*reservation.Reservation, error)
	GetEventReservations(ctx context.Context, eventID string, actorIsAdmin bool) ([]*reservation.Reservation, error)
	GetUserReservations(ctx context.Context, userID string) ([]*reservation.Reservation, error)
	GetStats(ctx context.Context) (*reservation.Stats, error)
}
