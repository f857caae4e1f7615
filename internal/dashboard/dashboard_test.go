package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/omnidine/internal/api"
)

func order(id int64, at time.Time, sum string, pm api.PaymentMethod, typ api.OrderType, st api.OrderStatus) api.Order {
	return api.Order{ID: id, CreatedAt: at, SumPrice: decimal.RequireFromString(sum), PaymentMethod: pm, Type: typ, Status: st}
}

func TestSummarize(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, loc)
	to := time.Date(2026, 10, 3, 0, 0, 0, 0, loc)

	orders := []api.Order{
		order(1, time.Date(2026, 10, 1, 9, 0, 0, 0, loc), "100.00", api.PayCash, api.OrderDineIn, api.OrderCompleted),
		order(2, time.Date(2026, 10, 1, 12, 0, 0, 0, loc), "50.50", api.PayCard, api.OrderTakeaway, api.OrderServed),
		order(3, time.Date(2026, 10, 2, 19, 0, 0, 0, loc), "200", api.PayCash, api.OrderDelivery, api.OrderCancelled),
		order(4, time.Date(2026, 10, 2, 20, 0, 0, 0, loc), "49.50", api.PayPromptPay, api.OrderDineIn, api.OrderPending),
		// 2026-10-01 23:30 UTC is 2026-10-02 06:30 local.
		order(5, time.Date(2026, 10, 1, 23, 30, 0, 0, time.UTC), "10", api.PayCash, api.OrderTakeaway, api.OrderCompleted),
		order(6, time.Date(2026, 10, 3, 0, 0, 0, 0, loc), "999", api.PayCash, api.OrderDineIn, api.OrderCompleted),
		order(7, time.Date(2026, 9, 30, 23, 59, 0, 0, loc), "999", api.PayCash, api.OrderDineIn, api.OrderCompleted),
	}

	s := Summarize(orders, from, to, loc)
	assert.Equal(t, 5, s.Orders)
	assert.Equal(t, 1, s.Cancelled)
	assert.Equal(t, "210.00", s.Revenue.StringFixed(2))
	assert.Equal(t, "52.50", s.AverageTicket.StringFixed(2))

	require.Len(t, s.ByDay, 2)
	assert.Equal(t, "2026-10-01", s.ByDay[0].Key)
	assert.Equal(t, "150.50", s.ByDay[0].Revenue.StringFixed(2))
	assert.Equal(t, "2026-10-02", s.ByDay[1].Key)
	assert.Equal(t, 2, s.ByDay[1].Orders)

	keys := func(bs []Bucket) []string {
		var out []string
		for _, b := range bs {
			out = append(out, b.Key)
		}
		return out
	}
	assert.Equal(t, []string{"card", "cash", "promptpay"}, keys(s.ByPayment))
	assert.Equal(t, "110.00", s.ByPayment[1].Revenue.StringFixed(2))
	assert.Equal(t, []string{"dine_in", "takeaway"}, keys(s.ByType))
	assert.Equal(t, []string{"cancelled", "completed", "pending", "served"}, keys(s.ByStatus))
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, time.Time{}, time.Now(), nil)
	assert.Zero(t, s.Orders)
	assert.True(t, s.Revenue.IsZero())
	assert.True(t, s.AverageTicket.IsZero())
	assert.Empty(t, s.ByDay)
}

func TestRange(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	now := time.Date(2026, 10, 15, 13, 0, 0, 0, loc)

	from, to, err := Range("", "", now, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 9, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, loc), to)

	from, to, err = Range("2026-10-05", "2026-10-01", now, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2026, 10, 6, 0, 0, 0, 0, loc), to)

	_, _, err = Range("yesterday", "", now, loc)
	assert.Error(t, err)
}
