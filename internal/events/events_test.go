package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/logging"
)

type sent struct {
	subject string
	body    []byte
}

type recorder struct {
	msgs []sent
	err  error
}

func (r *recorder) Publish(_ context.Context, subject string, msg []byte) error {
	r.msgs = append(r.msgs, sent{subject, msg})
	return r.err
}

func (r *recorder) Close() error { return nil }

var at = time.Date(2026, 10, 15, 6, 0, 0, 0, time.UTC)

func TestNotifier_ReservationCreated(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier(rec, nil)
	n.now = func() time.Time { return at }

	n.ReservationCreated(context.Background(), api.Reservation{ID: 11, UserID: 3, TableID: 7, AppointmentTime: "2026-10-18 14:00:00"})

	require.Len(t, rec.msgs, 1)
	assert.Equal(t, SubjectReservationCreated, rec.msgs[0].subject)
	var got ReservationCreated
	require.NoError(t, json.Unmarshal(rec.msgs[0].body, &got))
	assert.Equal(t, ReservationCreated{ReservationID: 11, UserID: 3, TableID: 7, AppointmentTime: "2026-10-18 14:00:00", At: at}, got)
}

func TestNotifier_OrderPlaced(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier(rec, nil)

	n.OrderPlaced(context.Background(), api.Order{ID: 5, UserID: 3, Type: api.OrderTakeaway, SumPrice: decimal.RequireFromString("99.5")}, 2, true)

	require.Len(t, rec.msgs, 1)
	assert.Equal(t, SubjectOrderPlaced, rec.msgs[0].subject)
	assert.Contains(t, string(rec.msgs[0].body), `"sum_price":"99.50"`)
	assert.Contains(t, string(rec.msgs[0].body), `"partial":true`)
}

func TestNotifier_PublishFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifier(&recorder{err: errors.New("nats: connection closed")}, logging.NewWithWriter(&buf, "info", "text"))

	n.ReservationCreated(context.Background(), api.Reservation{ID: 1})
	assert.Contains(t, buf.String(), "publish event failed")
	assert.Contains(t, buf.String(), SubjectReservationCreated)
}

func TestNotifier_NilPublisher(t *testing.T) {
	n := NewNotifier(nil, nil)
	n.OrderPlaced(context.Background(), api.Order{ID: 1}, 0, false)
	assert.NoError(t, n.Close())
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", nats.Timeout(200*time.Millisecond))
	assert.Error(t, err)
}
