package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	in := map[string]string{"email": email, "password": password}
	return call[LoginResult](ctx, c, http.MethodPost, "/api/auth/login", "", nil, in)
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (User, error) {
	return call[User](ctx, c, http.MethodPost, "/api/auth/signup", "", nil, req)
}

func (c *Client) ListTables(ctx context.Context, token string) ([]Table, error) {
	return call[[]Table](ctx, c, http.MethodGet, "/api/tables", token, nil, nil)
}

func (c *Client) CreateReservation(ctx context.Context, token string, req CreateReservationRequest) (Reservation, error) {
	return call[Reservation](ctx, c, http.MethodPost, "/api/reservations", token, nil, req)
}

// ListReservations returns every reservation when userID is 0.
func (c *Client) ListReservations(ctx context.Context, token string, userID int64) ([]Reservation, error) {
	return call[[]Reservation](ctx, c, http.MethodGet, "/api/reservations", token, userQuery(userID), nil)
}

func (c *Client) UpdateReservationStatus(ctx context.Context, token string, id int64, status ReservationStatus) (Reservation, error) {
	in := map[string]ReservationStatus{"status": status}
	return call[Reservation](ctx, c, http.MethodPatch, "/api/reservations/"+strconv.FormatInt(id, 10), token, nil, in)
}

func (c *Client) ListFoods(ctx context.Context, token string) ([]Food, error) {
	return call[[]Food](ctx, c, http.MethodGet, "/api/foods", token, nil, nil)
}

func (c *Client) GetFood(ctx context.Context, token string, id int64) (Food, error) {
	return call[Food](ctx, c, http.MethodGet, "/api/foods/"+strconv.FormatInt(id, 10), token, nil, nil)
}

func (c *Client) CreateOrder(ctx context.Context, token string, req CreateOrderRequest) (Order, error) {
	return call[Order](ctx, c, http.MethodPost, "/api/orders", token, nil, req)
}

func (c *Client) CreateOrderLine(ctx context.Context, token string, line OrderLine) (OrderLine, error) {
	return call[OrderLine](ctx, c, http.MethodPost, "/api/order_lists", token, nil, line)
}

// ListOrders returns every order when userID is 0.
func (c *Client) ListOrders(ctx context.Context, token string, userID int64) ([]Order, error) {
	return call[[]Order](ctx, c, http.MethodGet, "/api/orders", token, userQuery(userID), nil)
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token string, id int64, status OrderStatus) (Order, error) {
	in := map[string]OrderStatus{"status": status}
	return call[Order](ctx, c, http.MethodPatch, "/api/orders/"+strconv.FormatInt(id, 10), token, nil, in)
}

func (c *Client) ListStock(ctx context.Context, token string) ([]StockItem, error) {
	return call[[]StockItem](ctx, c, http.MethodGet, "/api/stocks", token, nil, nil)
}

func (c *Client) UpdateStock(ctx context.Context, token string, id int64, quantity float64) (StockItem, error) {
	in := map[string]float64{"quantity": quantity}
	return call[StockItem](ctx, c, http.MethodPatch, "/api/stocks/"+strconv.FormatInt(id, 10), token, nil, in)
}

func userQuery(userID int64) url.Values {
	if userID == 0 {
		return nil
	}
	return url.Values{"user_id": {strconv.FormatInt(userID, 10)}}
}
