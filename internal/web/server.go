package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/auth"
	"github.com/example/omnidine/internal/cart"
	"github.com/example/omnidine/internal/events"
	"github.com/example/omnidine/internal/listing"
	"github.com/example/omnidine/internal/logging"
	"github.com/example/omnidine/internal/wizard"
)

//go:embed templates/*.html static/*
var fs embed.FS

// FlashMillis is how long a flash banner stays before it dismisses itself.
const FlashMillis = 3000

// Sessions is implemented by *auth.Store.
type Sessions interface {
	Login(ctx context.Context, w http.ResponseWriter, r *http.Request, email, password string) (auth.Identity, error)
	Signup(ctx context.Context, w http.ResponseWriter, r *http.Request, f auth.SignupForm) (auth.Identity, error)
	Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) string
	RequireAuth(next http.Handler) http.Handler
}

// Backend is implemented by *api.Client.
type Backend interface {
	ListTables(ctx context.Context, token string) ([]api.Table, error)
	CreateReservation(ctx context.Context, token string, req api.CreateReservationRequest) (api.Reservation, error)
	ListReservations(ctx context.Context, token string, userID int64) ([]api.Reservation, error)
	UpdateReservationStatus(ctx context.Context, token string, id int64, status api.ReservationStatus) (api.Reservation, error)
	ListFoods(ctx context.Context, token string) ([]api.Food, error)
	GetFood(ctx context.Context, token string, id int64) (api.Food, error)
	CreateOrder(ctx context.Context, token string, req api.CreateOrderRequest) (api.Order, error)
	CreateOrderLine(ctx context.Context, token string, line api.OrderLine) (api.OrderLine, error)
	ListOrders(ctx context.Context, token string, userID int64) ([]api.Order, error)
	UpdateOrderStatus(ctx context.Context, token string, id int64, status api.OrderStatus) (api.Order, error)
	ListStock(ctx context.Context, token string) ([]api.StockItem, error)
	UpdateStock(ctx context.Context, token string, id int64, quantity float64) (api.StockItem, error)
}

type Server struct {
	Auth   Sessions
	API    Backend
	Carts  cart.Repo
	Events *events.Notifier
	Logger *slog.Logger

	// Location and Now define "today" for reservations and the dashboard.
	Location *time.Location
	Now      func() time.Time
	// Layout is the appointment_time layout sent to the API.
	Layout string

	flows *flowStore
}

type tmplData struct {
	Title string
	User  *auth.Identity

	Flash       string
	FlashKind   string
	FlashMillis int

	Page any
}

func (s *Server) init() {
	if s.Logger == nil {
		s.Logger = logging.Discard()
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Location == nil {
		s.Location = time.Local
	}
	if s.Layout == "" {
		s.Layout = wizard.DefaultLayout
	}
	if s.Events == nil {
		s.Events = events.NewNotifier(nil, s.Logger)
	}
	if s.flows == nil {
		s.flows = newFlowStore(s.Now)
	}
}

func (s *Server) Routes() http.Handler {
	s.init()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)

	r.Handle("/static/*", http.FileServer(http.FS(fs)))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLogin)
	r.Get("/signup", s.handleSignupForm)
	r.Post("/signup", s.handleSignup)
	r.Post("/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.Auth.RequireAuth)

		r.Get("/", s.handleMenu)
		r.Get("/foods/{id}", s.handleFood)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.handleCart)
			r.Post("/add", s.handleCartAdd)
			r.Post("/update", s.handleCartUpdate)
			r.Post("/remove", s.handleCartRemove)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", s.handleCheckout)
			r.Post("/review", s.handleCheckoutReview)
			r.Post("/fulfilment", s.handleCheckoutFulfilment)
			r.Post("/payment", s.handleCheckoutPayment)
			r.Post("/step/{n}", s.handleCheckoutStep)
			r.Post("/submit", s.handleCheckoutSubmit)
		})

		r.Route("/reserve", func(r chi.Router) {
			r.Get("/", s.handleReserve)
			r.Post("/date", s.handleReserveDate)
			r.Post("/time", s.handleReserveTime)
			r.Post("/table", s.handleReserveTable)
			r.Post("/step/{n}", s.handleReserveStep)
			r.Post("/submit", s.handleReserveSubmit)
		})

		r.Get("/orders", s.handleMyOrders)
		r.Get("/reservations", s.handleMyReservations)

		r.Route("/staff", func(r chi.Router) {
			r.Use(auth.RequireRole(api.RoleStaff, api.RoleAdmin))
			r.Get("/stock", s.handleStock)
			r.Post("/stock/{id}", s.handleStockUpdate)
			r.Get("/orders", s.handleStaffOrders)
			r.Post("/orders/{id}/status", s.handleOrderStatus)
			r.Get("/reservations", s.handleStaffReservations)
			r.Post("/reservations/{id}/status", s.handleReservationStatus)
		})

		r.With(auth.RequireRole(api.RoleAdmin)).Get("/admin/dashboard", s.handleDashboard)
	})

	return r
}

// SweepIdle drops wizard and checkout state untouched since before.
func (s *Server) SweepIdle(before time.Time) int {
	s.init()
	return s.flows.sweep(before)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"hour":  func(h int) string { return strconv.Itoa(h) + ":00" },
	"add":   func(a, b int) int { return a + b },
	"sub":   func(a, b int) int { return a - b },
	"title": func(v any) string {
		s := strings.ReplaceAll(fmt.Sprint(v), "_", " ")
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"isRole": func(u *auth.Identity, roles ...string) bool {
		if u == nil {
			return false
		}
		for _, r := range roles {
			if string(u.Role) == r {
				return true
			}
		}
		return false
	},
	"pageURL": func(q listing.Query, page int) template.URL {
		return template.URL("?" + q.Values(page).Encode())
	},
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data tmplData) {
	t, err := template.New("").Funcs(funcs).ParseFS(fs,
		"templates/base.html",
		name,
	)
	if err != nil {
		s.Logger.Error("template parse failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	if data.User == nil {
		if ident, ok := auth.IdentityFromContext(r.Context()); ok {
			data.User = &ident
		}
	}
	if data.Flash == "" {
		data.FlashKind, data.Flash = popFlash(w, r)
	}
	data.FlashMillis = FlashMillis

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		s.Logger.Error("template render failed", "template", name, "error", err)
	}
}

const flashCookie = "omnidine_flash"

func setFlash(w http.ResponseWriter, kind, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + msg),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

func popFlash(w http.ResponseWriter, r *http.Request) (kind, msg string) {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return "", ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	v, err := url.QueryUnescape(c.Value)
	if err != nil {
		return "", ""
	}
	kind, msg, ok := strings.Cut(v, "|")
	if !ok {
		return "", ""
	}
	return kind, msg
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, to, kind, msg string) {
	if msg != "" {
		setFlash(w, kind, msg)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func identity(r *http.Request) auth.Identity {
	ident, _ := auth.IdentityFromContext(r.Context())
	return ident
}

const msgLoadFailed = "Something went wrong while talking to the restaurant service. Please try again."

// fail handles an API error on a page load. A rejected token ends the session.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, api.ErrUnauthorized) {
		if id := s.Auth.Logout(r.Context(), w, r); id != "" {
			s.flows.discard(id)
		}
		s.redirect(w, r, "/login", "error", "Your session has expired. Please log in again.")
		return
	}
	s.Logger.Error("api call failed", "path", r.URL.Path, "error", err, "request_id", chimw.GetReqID(r.Context()))
	status := http.StatusBadGateway
	if errors.Is(err, api.ErrNotFound) {
		status = http.StatusNotFound
	}
	s.render(w, r, status, "templates/error.html", tmplData{Title: "Error", Flash: msgLoadFailed, FlashKind: "error"})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func formInt64(r *http.Request, name string) int64 {
	v, _ := strconv.ParseInt(strings.TrimSpace(r.FormValue(name)), 10, 64)
	return v
}

func formInt(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
	return v, err == nil
}

func Start(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
