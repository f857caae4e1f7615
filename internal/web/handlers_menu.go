package web

import (
	"cmp"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/auth"
	"github.com/example/omnidine/internal/cart"
	"github.com/example/omnidine/internal/listing"
)

var foodFields = listing.Fields[api.Food]{
	Text:  func(f api.Food) []string { return []string{f.Name, f.Description} },
	Group: func(f api.Food) string { return f.Category },
	Sorts: map[string]func(a, b api.Food) int{
		"name":  func(a, b api.Food) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
		"price": func(a, b api.Food) int { return a.Price.Cmp(b.Price) },
	},
}

type menuPage struct {
	Foods      listing.Page[api.Food]
	Categories []string
	CartCount  int
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	ident := identity(r)
	foods, err := s.API.ListFoods(r.Context(), ident.AccessToken)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.Carts.Load(r.Context(), ident.UserID)
	if err != nil {
		s.Logger.Warn("load cart failed", "user_id", ident.UserID, "error", err)
	}

	q := listing.FromValues(r.URL.Query())
	q.PerPage = 12
	s.render(w, r, http.StatusOK, "templates/menu.html", tmplData{
		Title: "Menu",
		Page: menuPage{
			Foods:      listing.Apply(foods, q, foodFields),
			Categories: categories(foods),
			CartCount:  c.Count(),
		},
	})
}

func categories(foods []api.Food) []string {
	var out []string
	for _, f := range foods {
		if f.Category != "" && !slices.Contains(out, f.Category) {
			out = append(out, f.Category)
		}
	}
	slices.Sort(out)
	return out
}

func (s *Server) handleFood(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	food, err := s.API.GetFood(r.Context(), identity(r).AccessToken, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "templates/food.html", tmplData{Title: food.Name, Page: food})
}

type cartPage struct {
	Lines []cart.PricedLine
	Total decimal.Decimal
	Count int
}

func pricing(foods []api.Food) (map[int64]decimal.Decimal, map[int64]string) {
	prices := make(map[int64]decimal.Decimal, len(foods))
	names := make(map[int64]string, len(foods))
	for _, f := range foods {
		prices[f.ID] = f.Price
		names[f.ID] = f.Name
	}
	return prices, names
}

// pricedCart loads the user's cart and prices it against the live menu.
// Lines for foods that left the menu are dropped and the cart is saved.
func (s *Server) pricedCart(r *http.Request, ident auth.Identity) (*cart.Cart, cartPage, bool, error) {
	foods, err := s.API.ListFoods(r.Context(), ident.AccessToken)
	if err != nil {
		return nil, cartPage{}, false, err
	}
	c, err := s.Carts.Load(r.Context(), ident.UserID)
	if err != nil {
		return nil, cartPage{}, false, err
	}
	prices, names := pricing(foods)

	dropped := false
	kept := c.Lines[:0]
	for _, l := range c.Lines {
		if _, ok := prices[l.FoodID]; ok {
			kept = append(kept, l)
		} else {
			dropped = true
		}
	}
	c.Lines = kept
	if dropped {
		if err := s.Carts.Save(r.Context(), c); err != nil {
			return nil, cartPage{}, false, err
		}
	}

	lines, total, err := c.Price(prices, names)
	if err != nil {
		return nil, cartPage{}, false, err
	}
	return &c, cartPage{Lines: lines, Total: total, Count: c.Count()}, dropped, nil
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	_, page, dropped, err := s.pricedCart(r, identity(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data := tmplData{Title: "Cart", Page: page}
	if dropped {
		data.Flash, data.FlashKind = "Some items are no longer on the menu and were removed.", "info"
	}
	s.render(w, r, http.StatusOK, "templates/cart.html", data)
}

// mutateCart applies fn to the stored cart and saves it. Any checkout in
// progress starts over from review.
func (s *Server) mutateCart(r *http.Request, fn func(c *cart.Cart) error) error {
	ident := identity(r)
	c, err := s.Carts.Load(r.Context(), ident.UserID)
	if err != nil {
		return err
	}
	if err := fn(&c); err != nil {
		return err
	}
	if err := s.Carts.Save(r.Context(), c); err != nil {
		return err
	}
	f := s.flows.acquire(ident.SessionID)
	if f.checkout != nil {
		f.checkout.Reset()
	}
	f.mu.Unlock()
	return nil
}

func (s *Server) cartError(w http.ResponseWriter, r *http.Request, back string, err error) {
	switch {
	case errors.Is(err, cart.ErrQuantity):
		s.redirect(w, r, back, "error", "Quantity must be at least 1.")
	case errors.Is(err, cart.ErrLineNotFound):
		s.redirect(w, r, back, "error", "That item is no longer in your cart.")
	default:
		s.Logger.Error("cart update failed", "error", err)
		s.redirect(w, r, back, "error", "Could not update your cart. Please try again.")
	}
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	foodID := formInt64(r, "food_id")
	qty, ok := formInt(r, "quantity")
	if !ok {
		qty = 1
	}
	if foodID <= 0 {
		s.redirect(w, r, "/", "error", "Unknown item.")
		return
	}
	back := "/foods/" + strconv.FormatInt(foodID, 10)
	err := s.mutateCart(r, func(c *cart.Cart) error { return c.Add(foodID, qty, r.FormValue("note")) })
	if err != nil {
		s.cartError(w, r, back, err)
		return
	}
	s.redirect(w, r, "/", "success", "Added to your cart.")
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	qty, ok := formInt(r, "quantity")
	if !ok {
		s.redirect(w, r, "/cart", "error", "Quantity must be a number.")
		return
	}
	foodID := formInt64(r, "food_id")
	err := s.mutateCart(r, func(c *cart.Cart) error { return c.SetQuantity(foodID, r.FormValue("note"), qty) })
	if err != nil {
		s.cartError(w, r, "/cart", err)
		return
	}
	s.redirect(w, r, "/cart", "", "")
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	foodID := formInt64(r, "food_id")
	err := s.mutateCart(r, func(c *cart.Cart) error { return c.Remove(foodID, r.FormValue("note")) })
	if err != nil {
		s.cartError(w, r, "/cart", err)
		return
	}
	s.redirect(w, r, "/cart", "success", "Item removed.")
}
