// Package dashboard aggregates orders into the admin financial summary.
package dashboard

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/omnidine/internal/api"
)

type Bucket struct {
	Key     string
	Orders  int
	Revenue decimal.Decimal
}

type Summary struct {
	From, To time.Time

	Orders    int
	Cancelled int
	Revenue   decimal.Decimal
	// AverageTicket is revenue over non-cancelled orders, rounded to 2 places.
	AverageTicket decimal.Decimal

	ByPayment []Bucket
	ByType    []Bucket
	ByDay     []Bucket
	ByStatus  []Bucket
}

// Summarize counts orders created in [from, to). Days are bucketed in loc.
// Cancelled orders are counted but contribute no revenue.
func Summarize(orders []api.Order, from, to time.Time, loc *time.Location) Summary {
	if loc == nil {
		loc = time.UTC
	}
	s := Summary{From: from, To: to, Revenue: decimal.Zero, AverageTicket: decimal.Zero}
	pay := map[string]*Bucket{}
	typ := map[string]*Bucket{}
	day := map[string]*Bucket{}
	status := map[string]*Bucket{}

	paid := 0
	for _, o := range orders {
		if o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
			continue
		}
		s.Orders++
		add(status, string(o.Status), decimal.Zero)
		if o.Status == api.OrderCancelled {
			s.Cancelled++
			continue
		}
		paid++
		s.Revenue = s.Revenue.Add(o.SumPrice)
		add(pay, string(o.PaymentMethod), o.SumPrice)
		add(typ, string(o.Type), o.SumPrice)
		add(day, o.CreatedAt.In(loc).Format(time.DateOnly), o.SumPrice)
	}
	if paid > 0 {
		s.AverageTicket = s.Revenue.Div(decimal.NewFromInt(int64(paid))).Round(2)
	}

	s.ByPayment = sorted(pay)
	s.ByType = sorted(typ)
	s.ByDay = sorted(day)
	s.ByStatus = sorted(status)
	return s
}

func add(m map[string]*Bucket, key string, amount decimal.Decimal) {
	b, ok := m[key]
	if !ok {
		b = &Bucket{Key: key, Revenue: decimal.Zero}
		m[key] = b
	}
	b.Orders++
	b.Revenue = b.Revenue.Add(amount)
}

func sorted(m map[string]*Bucket) []Bucket {
	out := make([]Bucket, 0, len(m))
	for _, b := range m {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Range parses the dashboard's from/to query values (YYYY-MM-DD, to inclusive).
// Missing values default to the last 7 days ending today.
func Range(fromStr, toStr string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	from, to := today.AddDate(0, 0, -6), today
	var err error
	if fromStr != "" {
		if from, err = time.ParseInLocation(time.DateOnly, fromStr, loc); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toStr != "" {
		if to, err = time.ParseInLocation(time.DateOnly, toStr, loc); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if to.Before(from) {
		from, to = to, from
	}
	return from, to.AddDate(0, 0, 1), nil
}
