package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約操作の総数（operation: create/change_status/remove, result: success/conflict/full/forbidden/error）
	ReservationOperationsTotal *prometheus.CounterVec

	// 状態遷移に伴い適用された座席デルタの総量（direction: released/consumed）
	SeatAdjustmentsTotal *prometheus.CounterVec

	// イベントごとの空席数（event_id）
	AvailableSeats *prometheus.GaugeVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ReservationOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservation_operations_total",
				Help: "Total number of reservation lifecycle operations",
			},
			[]string{"operation", "result"},
		),
		SeatAdjustmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_adjustments_total",
				Help: "Total number of seat counter adjustments applied",
			},
			[]string{"direction"},
		),
		AvailableSeats: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "event_available_seats",
				Help: "Current number of available seats per event",
			},
			[]string{"event_id"},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReservationOperationsTotal,
		m.SeatAdjustmentsTotal,
		m.AvailableSeats,
	)

	return m
}

// RecordReservationOperation は予約操作の結果を記録する
func (m *Metrics) RecordReservationOperation(operation, result string) {
	m.ReservationOperationsTotal.WithLabelValues(operation, result).Inc()
}

// SetAvailableSeats はイベントごとの空席数ゲージを更新する
func (m *Metrics) SetAvailableSeats(eventID string, count int) {
	m.AvailableSeats.WithLabelValues(eventID).Set(float64(count))
}

// RecordSeatAdjustment は座席デルタの適用を記録する
func (m *Metrics) RecordSeatAdjustment(delta int) {
	switch {
	case delta > 0:
		m.SeatAdjustmentsTotal.WithLabelValues("released").Add(float64(delta))
	case delta < 0:
		m.SeatAdjustmentsTotal.WithLabelValues("consumed").Add(float64(-delta))
	}
}
