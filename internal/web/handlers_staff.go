package web

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/dashboard"
	"github.com/example/omnidine/internal/listing"
)

type stockPage struct {
	List       listing.Page[api.StockItem]
	Categories []string
	Low        int
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	items, err := s.API.ListStock(r.Context(), identity(r).AccessToken)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var cats []string
	low := 0
	for _, it := range items {
		if it.Category != "" && !slices.Contains(cats, it.Category) {
			cats = append(cats, it.Category)
		}
		if it.Low() {
			low++
		}
	}
	slices.Sort(cats)

	q := listing.FromValues(r.URL.Query())
	q.PerPage = 20
	s.render(w, r, http.StatusOK, "templates/staff_stock.html", tmplData{
		Title: "Stock",
		Page:  stockPage{List: listing.Apply(items, q, stockFields), Categories: cats, Low: low},
	})
}

func (s *Server) handleStockUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	qty, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("quantity")), 64)
	if err != nil || qty < 0 {
		s.redirect(w, r, "/staff/stock", "error", "Quantity must be a number of zero or more.")
		return
	}
	item, err := s.API.UpdateStock(r.Context(), identity(r).AccessToken, id, qty)
	if err != nil {
		s.Logger.Error("update stock failed", "stock_id", id, "error", err)
		s.redirect(w, r, "/staff/stock", "error", "Could not update stock. Please try again.")
		return
	}
	s.redirect(w, r, "/staff/stock", "success", fmt.Sprintf("%s updated.", item.Name))
}

func (s *Server) handleStaffOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.API.ListOrders(r.Context(), identity(r).AccessToken, 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := newestFirst(listing.FromValues(r.URL.Query()))
	q.PerPage = 20
	s.render(w, r, http.StatusOK, "templates/orders.html", tmplData{
		Title: "All orders",
		Page: listPage[api.Order]{
			List:    listing.Apply(orders, q, orderFields),
			Filters: statusNames(api.OrderStatuses),
			Base:    "/staff/orders",
			Staff:   true,
		},
	})
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	status := api.OrderStatus(r.FormValue("status"))
	if !slices.Contains(api.OrderStatuses, status) {
		s.redirect(w, r, "/staff/orders", "error", "Unknown order status.")
		return
	}
	if _, err := s.API.UpdateOrderStatus(r.Context(), identity(r).AccessToken, id, status); err != nil {
		s.Logger.Error("update order status failed", "order_id", id, "error", err)
		s.redirect(w, r, "/staff/orders", "error", "Could not update the order. Please try again.")
		return
	}
	s.redirect(w, r, "/staff/orders", "success", fmt.Sprintf("Order #%d is now %s.", id, status))
}

func (s *Server) handleStaffReservations(w http.ResponseWriter, r *http.Request) {
	res, err := s.API.ListReservations(r.Context(), identity(r).AccessToken, 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := newestFirst(listing.FromValues(r.URL.Query()))
	q.PerPage = 20
	s.render(w, r, http.StatusOK, "templates/reservations.html", tmplData{
		Title: "All reservations",
		Page: listPage[api.Reservation]{
			List:    listing.Apply(res, q, reservationFields),
			Filters: statusNames(api.ReservationStatuses),
			Base:    "/staff/reservations",
			Staff:   true,
		},
	})
}

func (s *Server) handleReservationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	status := api.ReservationStatus(r.FormValue("status"))
	if !slices.Contains(api.ReservationStatuses, status) {
		s.redirect(w, r, "/staff/reservations", "error", "Unknown reservation status.")
		return
	}
	if _, err := s.API.UpdateReservationStatus(r.Context(), identity(r).AccessToken, id, status); err != nil {
		s.Logger.Error("update reservation status failed", "reservation_id", id, "error", err)
		s.redirect(w, r, "/staff/reservations", "error", "Could not update the reservation. Please try again.")
		return
	}
	s.redirect(w, r, "/staff/reservations", "success", fmt.Sprintf("Reservation #%d is now %s.", id, status))
}

type dashboardSection struct {
	Title string
	Rows  []dashboard.Bucket
}

type dashboardPage struct {
	Summary  dashboard.Summary
	Sections []dashboardSection
	From     string
	To       string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	from, to, err := dashboard.Range(r.URL.Query().Get("from"), r.URL.Query().Get("to"), s.Now(), s.Location)
	if err != nil {
		s.redirect(w, r, "/admin/dashboard", "error", "Dates must look like 2026-01-31.")
		return
	}
	orders, err := s.API.ListOrders(r.Context(), identity(r).AccessToken, 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sum := dashboard.Summarize(orders, from, to, s.Location)
	s.render(w, r, http.StatusOK, "templates/dashboard.html", tmplData{
		Title: "Dashboard",
		Page: dashboardPage{
			Summary: sum,
			Sections: []dashboardSection{
				{"By day", sum.ByDay},
				{"By payment method", sum.ByPayment},
				{"By order type", sum.ByType},
				{"By status", sum.ByStatus},
			},
			From: from.Format(time.DateOnly),
			To:   to.AddDate(0, 0, -1).Format(time.DateOnly),
		},
	})
}
