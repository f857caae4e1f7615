package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/checkout"
)

type checkoutPage struct {
	Flow    *checkout.Flow
	Step    checkout.Step
	Steps   []stepLink
	Cart    cartPage
	Tables  []api.Table
	Types   []api.OrderType
	Methods []api.PaymentMethod
}

var checkoutLabels = map[checkout.Step]string{
	checkout.StepReview:     "Review",
	checkout.StepFulfilment: "Fulfilment",
	checkout.StepPayment:    "Payment",
	checkout.StepConfirm:    "Confirm",
}

var (
	orderTypes     = []api.OrderType{api.OrderDineIn, api.OrderTakeaway, api.OrderDelivery}
	paymentMethods = []api.PaymentMethod{api.PayCash, api.PayPromptPay, api.PayCard}
)

func (f *flows) checkoutFlow(s *Server) *checkout.Flow {
	if f.checkout == nil {
		f.checkout = checkout.New(s.API)
	}
	return f.checkout
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ident := identity(r)
	f := s.flows.acquire(ident.SessionID)
	defer f.mu.Unlock()
	flow := f.checkoutFlow(s)

	_, cp, _, err := s.pricedCart(r, ident)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page := checkoutPage{
		Flow:    flow,
		Step:    flow.Step(),
		Cart:    cp,
		Types:   orderTypes,
		Methods: paymentMethods,
	}
	for n := checkout.StepReview; n <= checkout.StepConfirm; n++ {
		page.Steps = append(page.Steps, stepLink{
			N:         int(n),
			Label:     checkoutLabels[n],
			Current:   flow.Step() == n,
			Done:      flow.Completed(n),
			Reachable: n == checkout.StepReview || flow.Completed(n-1),
		})
	}
	if flow.Step() == checkout.StepFulfilment {
		tables, err := s.API.ListTables(r.Context(), ident.AccessToken)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		for _, t := range tables {
			if t.Available() || t.ID == flow.TableID() {
				page.Tables = append(page.Tables, t)
			}
		}
	}
	data := tmplData{Title: "Checkout", Page: page}
	if msg := flow.FieldError(); msg != "" {
		data.Flash, data.FlashKind = msg, "error"
	} else if msg := flow.SubmitError(); msg != "" {
		data.Flash, data.FlashKind = msg, "error"
	}
	s.render(w, r, http.StatusOK, "templates/checkout.html", data)
}

func (s *Server) handleCheckoutReview(w http.ResponseWriter, r *http.Request) {
	ident := identity(r)
	c, err := s.Carts.Load(r.Context(), ident.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	f := s.flows.acquire(ident.SessionID)
	defer f.mu.Unlock()
	_ = f.checkoutFlow(s).Review(c)
	http.Redirect(w, r, "/checkout", http.StatusSeeOther)
}

func (s *Server) handleCheckoutFulfilment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f := s.flows.acquire(identity(r).SessionID)
	defer f.mu.Unlock()
	_ = f.checkoutFlow(s).SetFulfilment(api.OrderType(r.FormValue("type")), formInt64(r, "table_id"), r.FormValue("address"))
	http.Redirect(w, r, "/checkout", http.StatusSeeOther)
}

func (s *Server) handleCheckoutPayment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f := s.flows.acquire(identity(r).SessionID)
	defer f.mu.Unlock()
	_ = f.checkoutFlow(s).SetPayment(api.PaymentMethod(r.FormValue("payment_method")))
	http.Redirect(w, r, "/checkout", http.StatusSeeOther)
}

func (s *Server) handleCheckoutStep(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	f := s.flows.acquire(identity(r).SessionID)
	defer f.mu.Unlock()
	_ = f.checkoutFlow(s).GoToStep(checkout.Step(n))
	http.Redirect(w, r, "/checkout", http.StatusSeeOther)
}

func (s *Server) handleCheckoutSubmit(w http.ResponseWriter, r *http.Request) {
	ident := identity(r)
	f := s.flows.acquire(ident.SessionID)
	defer f.mu.Unlock()
	flow := f.checkoutFlow(s)

	foods, err := s.API.ListFoods(r.Context(), ident.AccessToken)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.Carts.Load(r.Context(), ident.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	prices, _ := pricing(foods)
	lines := len(c.Lines)

	order, err := flow.Submit(r.Context(), ident, &c, prices)
	var partial *checkout.PartialOrderError
	switch {
	case err == nil:
	case errors.As(err, &partial):
		s.Logger.Error("order placed partially", "order_id", order.ID, "failed_lines", len(partial.Failed), "error", partial.Err)
	case errors.Is(err, checkout.ErrNotReady), errors.Is(err, checkout.ErrEmptyCart):
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	case errors.Is(err, api.ErrUnauthorized):
		s.fail(w, r, err)
		return
	default:
		s.Logger.Error("place order failed", "user_id", ident.UserID, "error", err)
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}

	if c.Empty() {
		err = s.Carts.Delete(r.Context(), ident.UserID)
	} else {
		err = s.Carts.Save(r.Context(), c)
	}
	if err != nil {
		s.Logger.Error("update cart after order failed", "user_id", ident.UserID, "error", err)
	}
	order.UserID = ident.UserID
	s.Events.OrderPlaced(r.Context(), order, lines-len(c.Lines), partial != nil)
	f.checkout = nil

	if partial != nil {
		s.redirect(w, r, "/orders", "error", checkout.MsgPartial)
		return
	}
	s.redirect(w, r, "/orders", "success", fmt.Sprintf("Order #%d placed. Total %s.", order.ID, order.SumPrice.StringFixed(2)))
}
