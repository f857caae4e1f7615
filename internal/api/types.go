package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role"`
}

type LoginResult struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

const TableAvailable = "available"

type Table struct {
	ID     int64  `json:"id"`
	Seats  int    `json:"seats"`
	Status string `json:"status"`
}

func (t Table) Available() bool {
	return strings.EqualFold(t.Status, TableAvailable)
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationSeated    ReservationStatus = "seated"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationNoShow    ReservationStatus = "no_show"
)

var ReservationStatuses = []ReservationStatus{
	ReservationPending, ReservationConfirmed, ReservationSeated, ReservationCancelled, ReservationNoShow,
}

type Reservation struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	TableID         int64             `json:"table_id"`
	AppointmentTime string            `json:"appointment_time"`
	Status          ReservationStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

type CreateReservationRequest struct {
	UserID          int64  `json:"user_id"`
	TableID         int64  `json:"table_id"`
	AppointmentTime string `json:"appointment_time"`
}

type Food struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Available   bool            `json:"available"`
}

type OrderType string

const (
	OrderDineIn   OrderType = "dine_in"
	OrderTakeaway OrderType = "takeaway"
	OrderDelivery OrderType = "delivery"
)

type PaymentMethod string

const (
	PayCash      PaymentMethod = "cash"
	PayPromptPay PaymentMethod = "promptpay"
	PayCard      PaymentMethod = "card"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCooking   OrderStatus = "cooking"
	OrderServed    OrderStatus = "served"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{OrderPending, OrderCooking, OrderServed, OrderCompleted, OrderCancelled}

type Order struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	TableID       *int64          `json:"table_id"`
	Address       string          `json:"address"`
	Type          OrderType       `json:"type"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	SumPrice      decimal.Decimal `json:"sum_price"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CreateOrderRequest sends sum_price as a JSON number with two decimals.
type CreateOrderRequest struct {
	UserID        int64         `json:"user_id"`
	TableID       *int64        `json:"table_id"`
	Address       string        `json:"address"`
	Type          OrderType     `json:"type"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	SumPrice      json.Number   `json:"sum_price"`
}

func Money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

type OrderLine struct {
	ID       int64  `json:"id,omitempty"`
	OrderID  int64  `json:"order_id"`
	FoodID   int64  `json:"food_id"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

type StockItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Unit        string    `json:"unit"`
	Quantity    float64   `json:"quantity"`
	MinQuantity float64   `json:"min_quantity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s StockItem) Low() bool {
	return s.Quantity <= s.MinQuantity
}
