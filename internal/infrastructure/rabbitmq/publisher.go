package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ElFirdaous28/event-reservation-system/internal/config"
)

// ReservationEvent は予約ライフサイクルの変化を下流へ通知するメッセージ
// 通知・分析などの消費者が主DBへ問い合わせずに処理できる情報を持つ
type ReservationEvent struct {
	MessageID     string `json:"message_id"`
	ReservationID string `json:"reservation_id"`
	EventID       string `json:"event_id"`
	UserID        string `json:"user_id"`
	OldStatus     string `json:"old_status,omitempty"`
	NewStatus     string `json:"new_status"`
	OccurredAt    string `json:"occurred_at"`
}

// Publisher はRabbitMQへ予約イベントを発行する
// 発行失敗はリクエストを失敗させないよう呼び出し側でログのみとする
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewPublisher は接続を確立し、発行先のトピック交換を宣言する
func NewPublisher(cfg *config.RabbitMQConfig) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗しました: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("チャネル作成に失敗しました: %w", err)
	}

	// 交換は冪等に宣言する。durable でブローカー再起動後も維持される
	if err := ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // autoDelete
		false,        // internal
		false,        // noWait
		nil,          // args
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("交換の宣言に失敗しました: %w", err)
	}

	return &Publisher{conn: conn, channel: ch, exchange: cfg.Exchange}, nil
}

// PublishReservationEvent は予約イベントを発行する
// ルーティングキーは "reservation.<new_status>"
func (p *Publisher) PublishReservationEvent(ctx context.Context, event ReservationEvent) error {
	if event.MessageID == "" {
		event.MessageID = uuid.New().String()
	}
	if event.OccurredAt == "" {
		event.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("メッセージのシリアライズに失敗: %w", err)
	}

	pub := amqp.Publishing{
		MessageId:    event.MessageID,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	routingKey := "reservation." + event.NewStatus
	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, pub); err != nil {
		return fmt.Errorf("メッセージ発行に失敗: %w", err)
	}
	return nil
}

// Close は接続とチャネルを閉じる
func (p *Publisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
