// Package events announces completed reservations and orders to other
// services. Delivery is best effort: failures are logged and never reach the
// user who triggered them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/logging"
)

const (
	SubjectReservationCreated = "omnidine.reservation.created"
	SubjectOrderPlaced        = "omnidine.order.placed"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, msg []byte) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	opts = append([]nats.Option{nats.Name("omnidine-web")}, opts...)
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, subject string, msg []byte) error {
	return p.conn.Publish(subject, msg)
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// Nop discards everything. Used when NATS_URL is unset.
type Nop struct{}

func (Nop) Publish(context.Context, string, []byte) error { return nil }
func (Nop) Close() error                                  { return nil }

type ReservationCreated struct {
	ReservationID   int64     `json:"reservation_id"`
	UserID          int64     `json:"user_id"`
	TableID         int64     `json:"table_id"`
	AppointmentTime string    `json:"appointment_time"`
	At              time.Time `json:"at"`
}

type OrderPlaced struct {
	OrderID       int64             `json:"order_id"`
	UserID        int64             `json:"user_id"`
	Type          api.OrderType     `json:"type"`
	PaymentMethod api.PaymentMethod `json:"payment_method"`
	SumPrice      string            `json:"sum_price"`
	Lines         int               `json:"lines"`
	Partial       bool              `json:"partial"`
	At            time.Time         `json:"at"`
}

// Notifier turns domain results into events.
type Notifier struct {
	pub    Publisher
	logger *slog.Logger
	now    func() time.Time
}

func NewNotifier(pub Publisher, logger *slog.Logger) *Notifier {
	if pub == nil {
		pub = Nop{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Notifier{pub: pub, logger: logger, now: time.Now}
}

func (n *Notifier) ReservationCreated(ctx context.Context, r api.Reservation) {
	n.send(ctx, SubjectReservationCreated, ReservationCreated{
		ReservationID:   r.ID,
		UserID:          r.UserID,
		TableID:         r.TableID,
		AppointmentTime: r.AppointmentTime,
		At:              n.now().UTC(),
	})
}

func (n *Notifier) OrderPlaced(ctx context.Context, o api.Order, lines int, partial bool) {
	n.send(ctx, SubjectOrderPlaced, OrderPlaced{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Type:          o.Type,
		PaymentMethod: o.PaymentMethod,
		SumPrice:      o.SumPrice.StringFixed(2),
		Lines:         lines,
		Partial:       partial,
		At:            n.now().UTC(),
	})
}

func (n *Notifier) send(ctx context.Context, subject string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		n.logger.Error("encode event failed", "subject", subject, "error", err)
		return
	}
	if err := n.pub.Publish(ctx, subject, b); err != nil {
		n.logger.Warn("publish event failed", "subject", subject, "error", err)
	}
}

func (n *Notifier) Close() error { return n.pub.Close() }
