// Package checkout walks a cart through fulfilment and payment and places the
// order. Step gating follows the same rules as the reservation wizard.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/auth"
	"github.com/example/omnidine/internal/cart"
)

type Step int

const (
	StepReview Step = iota + 1
	StepFulfilment
	StepPayment
	StepConfirm
)

var (
	ErrStepLocked = errors.New("checkout: step not reachable yet")
	ErrNotReady   = errors.New("checkout: not all steps are completed")
	ErrEmptyCart  = errors.New("checkout: cart is empty")
)

const (
	MsgEmptyCart     = "Your cart is empty."
	MsgNeedTable     = "Please choose a table for dine-in orders."
	MsgNeedAddress   = "Please enter a delivery address."
	MsgUnknownType   = "Please choose how you want to receive your order."
	MsgUnknownMethod = "Please choose a payment method."
	MsgSubmitFailed  = "Could not place the order. Please try again."
	MsgPartial       = "Your order was placed but some items could not be added. Please contact staff."
)

type ValidationError struct {
	Step    Step
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// PartialOrderError reports an order header that was created while some of
// its lines were not. Nothing is rolled back.
type PartialOrderError struct {
	Order  api.Order
	Failed []cart.Line
	Err    error
}

func (e *PartialOrderError) Error() string {
	return fmt.Sprintf("order %d placed with %d missing line(s): %v", e.Order.ID, len(e.Failed), e.Err)
}

func (e *PartialOrderError) Unwrap() error { return e.Err }

type Backend interface {
	CreateOrder(ctx context.Context, token string, req api.CreateOrderRequest) (api.Order, error)
	CreateOrderLine(ctx context.Context, token string, line api.OrderLine) (api.OrderLine, error)
}

type Flow struct {
	backend Backend

	step Step
	done int

	orderType api.OrderType
	tableID   int64
	address   string
	payment   api.PaymentMethod

	fieldErr  string
	submitErr string
	placed    *api.Order
}

func New(backend Backend) *Flow {
	return &Flow{backend: backend, step: StepReview}
}

func (f *Flow) reject(s Step, msg string) error {
	f.fieldErr = msg
	return &ValidationError{Step: s, Message: msg}
}

// Review confirms the cart contents and clears every later choice.
func (f *Flow) Review(c cart.Cart) error {
	if c.Empty() {
		return f.reject(StepReview, MsgEmptyCart)
	}
	f.orderType, f.tableID, f.address, f.payment = "", 0, "", ""
	f.done = int(StepReview)
	f.step = StepFulfilment
	f.fieldErr, f.submitErr = "", ""
	f.placed = nil
	return nil
}

// SetFulfilment records how the order is received. Dine-in needs a table,
// delivery needs an address.
func (f *Flow) SetFulfilment(t api.OrderType, tableID int64, address string) error {
	if f.done < int(StepReview) {
		return ErrStepLocked
	}
	address = strings.TrimSpace(address)
	switch t {
	case api.OrderDineIn:
		if tableID <= 0 {
			return f.reject(StepFulfilment, MsgNeedTable)
		}
		address = ""
	case api.OrderDelivery:
		if address == "" {
			return f.reject(StepFulfilment, MsgNeedAddress)
		}
		tableID = 0
	case api.OrderTakeaway:
		tableID, address = 0, ""
	default:
		return f.reject(StepFulfilment, MsgUnknownType)
	}

	f.orderType, f.tableID, f.address = t, tableID, address
	f.payment = ""
	f.done = int(StepFulfilment)
	f.step = StepPayment
	f.fieldErr, f.submitErr = "", ""
	return nil
}

func (f *Flow) SetPayment(m api.PaymentMethod) error {
	if f.done < int(StepFulfilment) {
		return ErrStepLocked
	}
	switch m {
	case api.PayCash, api.PayPromptPay, api.PayCard:
	default:
		return f.reject(StepPayment, MsgUnknownMethod)
	}
	f.payment = m
	f.done = int(StepPayment)
	f.step = StepConfirm
	f.fieldErr, f.submitErr = "", ""
	return nil
}

func (f *Flow) GoToStep(n Step) error {
	if n < StepReview || n > StepConfirm {
		return ErrStepLocked
	}
	if n != StepReview && f.done < int(n-1) {
		return ErrStepLocked
	}
	f.step = n
	return nil
}

// Submit posts the order header and then one line per cart line. Lines that
// were written are removed from the cart, so a full success leaves it empty.
func (f *Flow) Submit(ctx context.Context, id auth.Identity, c *cart.Cart, prices map[int64]decimal.Decimal) (api.Order, error) {
	if f.done < int(StepPayment) {
		return api.Order{}, ErrNotReady
	}
	if c.Empty() {
		f.step = StepReview
		f.done = 0
		f.submitErr = MsgEmptyCart
		return api.Order{}, ErrEmptyCart
	}
	total, err := c.Total(prices)
	if err != nil {
		f.submitErr = MsgSubmitFailed
		f.step = StepConfirm
		return api.Order{}, err
	}

	req := api.CreateOrderRequest{
		UserID:        id.UserID,
		Address:       f.address,
		Type:          f.orderType,
		PaymentMethod: f.payment,
		SumPrice:      api.Money(total),
	}
	if f.orderType == api.OrderDineIn {
		tid := f.tableID
		req.TableID = &tid
	}

	order, err := f.backend.CreateOrder(ctx, id.AccessToken, req)
	if err != nil {
		f.submitErr = MsgSubmitFailed
		f.step = StepConfirm
		return api.Order{}, fmt.Errorf("create order: %w", err)
	}

	var failed []cart.Line
	var errs []error
	for _, l := range c.Lines {
		_, err := f.backend.CreateOrderLine(ctx, id.AccessToken, api.OrderLine{
			OrderID:  order.ID,
			FoodID:   l.FoodID,
			Quantity: l.Quantity,
			Note:     l.Note,
		})
		if err != nil {
			failed = append(failed, l)
			errs = append(errs, err)
		}
	}
	c.Lines = failed

	f.reset()
	f.placed = &order
	if len(failed) > 0 {
		f.submitErr = MsgPartial
		return order, &PartialOrderError{Order: order, Failed: failed, Err: errors.Join(errs...)}
	}
	return order, nil
}

func (f *Flow) reset() {
	f.step = StepReview
	f.done = 0
	f.orderType, f.tableID, f.address, f.payment = "", 0, "", ""
	f.fieldErr, f.submitErr = "", ""
	f.placed = nil
}

// Reset discards all choices.
func (f *Flow) Reset() { f.reset() }

func (f *Flow) Step() Step { return f.step }

func (f *Flow) Completed(s Step) bool { return s >= StepReview && int(s) <= f.done }

func (f *Flow) OrderType() api.OrderType         { return f.orderType }
func (f *Flow) TableID() int64                   { return f.tableID }
func (f *Flow) Address() string                  { return f.address }
func (f *Flow) PaymentMethod() api.PaymentMethod { return f.payment }
func (f *Flow) FieldError() string               { return f.fieldErr }
func (f *Flow) SubmitError() string              { return f.submitErr }

// Placed returns the order created by the last Submit, if any.
func (f *Flow) Placed() *api.Order { return f.placed }
