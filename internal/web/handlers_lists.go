package web

import (
	"cmp"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/listing"
)

var orderFields = listing.Fields[api.Order]{
	Text:  func(o api.Order) []string { return []string{strconv.FormatInt(o.ID, 10), o.Address, string(o.Type)} },
	Group: func(o api.Order) string { return string(o.Status) },
	Sorts: map[string]func(a, b api.Order) int{
		"created": func(a, b api.Order) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"total":   func(a, b api.Order) int { return a.SumPrice.Cmp(b.SumPrice) },
		"id":      func(a, b api.Order) int { return cmp.Compare(a.ID, b.ID) },
	},
}

var reservationFields = listing.Fields[api.Reservation]{
	Text: func(r api.Reservation) []string {
		return []string{strconv.FormatInt(r.ID, 10), strconv.FormatInt(r.TableID, 10), r.AppointmentTime}
	},
	Group: func(r api.Reservation) string { return string(r.Status) },
	Sorts: map[string]func(a, b api.Reservation) int{
		"created": func(a, b api.Reservation) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"table":   func(a, b api.Reservation) int { return cmp.Compare(a.TableID, b.TableID) },
		"id":      func(a, b api.Reservation) int { return cmp.Compare(a.ID, b.ID) },
	},
}

var stockFields = listing.Fields[api.StockItem]{
	Text:  func(s api.StockItem) []string { return []string{s.Name} },
	Group: func(s api.StockItem) string { return s.Category },
	Sorts: map[string]func(a, b api.StockItem) int{
		"name":     func(a, b api.StockItem) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
		"quantity": func(a, b api.StockItem) int { return cmp.Compare(a.Quantity, b.Quantity) },
	},
}

// newestFirst applies the default sort when none was requested.
func newestFirst(q listing.Query) listing.Query {
	if q.Sort == "" {
		q.Sort, q.Desc = "created", true
	}
	return q
}

type listPage[T any] struct {
	List    listing.Page[T]
	Filters []string
	Base    string
	Staff   bool
}

func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	ident := identity(r)
	orders, err := s.API.ListOrders(r.Context(), ident.AccessToken, ident.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := newestFirst(listing.FromValues(r.URL.Query()))
	s.render(w, r, http.StatusOK, "templates/orders.html", tmplData{
		Title: "My orders",
		Page: listPage[api.Order]{
			List:    listing.Apply(orders, q, orderFields),
			Filters: statusNames(api.OrderStatuses),
			Base:    "/orders",
		},
	})
}

func (s *Server) handleMyReservations(w http.ResponseWriter, r *http.Request) {
	ident := identity(r)
	res, err := s.API.ListReservations(r.Context(), ident.AccessToken, ident.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := newestFirst(listing.FromValues(r.URL.Query()))
	s.render(w, r, http.StatusOK, "templates/reservations.html", tmplData{
		Title: "My reservations",
		Page: listPage[api.Reservation]{
			List:    listing.Apply(res, q, reservationFields),
			Filters: statusNames(api.ReservationStatuses),
			Base:    "/reservations",
		},
	})
}

func statusNames[S ~string](ss []S) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
