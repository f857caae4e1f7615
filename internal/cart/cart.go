// Package cart holds a customer's shopping cart: a list of food lines that is
// priced against the current menu only at display and checkout time.
package cart

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	ErrQuantity     = errors.New("quantity must be at least 1")
	ErrLineNotFound = errors.New("cart line not found")
	ErrUnknownFood  = errors.New("food not on the menu")
)

// MaxNoteLen bounds the free-text note kept per line.
const MaxNoteLen = 200

type Line struct {
	FoodID   int64  `json:"food_id"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

type Cart struct {
	UserID    int64
	Lines     []Line
	UpdatedAt time.Time
}

func normalizeNote(note string) string {
	note = strings.TrimSpace(note)
	if len(note) <= MaxNoteLen {
		return note
	}
	// cut on a rune boundary so the stored note stays valid UTF-8
	cut := MaxNoteLen
	for cut > 0 && !utf8.RuneStart(note[cut]) {
		cut--
	}
	return strings.TrimSpace(note[:cut])
}

func (c *Cart) find(foodID int64, note string) int {
	for i, l := range c.Lines {
		if l.FoodID == foodID && l.Note == note {
			return i
		}
	}
	return -1
}

// Add merges into an existing line with the same food and note.
func (c *Cart) Add(foodID int64, qty int, note string) error {
	if qty < 1 {
		return ErrQuantity
	}
	note = normalizeNote(note)
	if i := c.find(foodID, note); i >= 0 {
		c.Lines[i].Quantity += qty
		return nil
	}
	c.Lines = append(c.Lines, Line{FoodID: foodID, Quantity: qty, Note: note})
	return nil
}

// SetQuantity replaces a line's quantity. Zero removes the line.
func (c *Cart) SetQuantity(foodID int64, note string, qty int) error {
	if qty < 0 {
		return ErrQuantity
	}
	i := c.find(foodID, normalizeNote(note))
	if i < 0 {
		return ErrLineNotFound
	}
	if qty == 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return nil
	}
	c.Lines[i].Quantity = qty
	return nil
}

func (c *Cart) Remove(foodID int64, note string) error {
	return c.SetQuantity(foodID, note, 0)
}

func (c *Cart) Clear() { c.Lines = nil }

func (c *Cart) Empty() bool { return len(c.Lines) == 0 }

// Count is the number of items, not lines.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

type PricedLine struct {
	Line
	Name      string
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// Price resolves every line against prices. A line whose food is missing
// makes the whole cart unpriceable.
func (c *Cart) Price(prices map[int64]decimal.Decimal, names map[int64]string) ([]PricedLine, decimal.Decimal, error) {
	out := make([]PricedLine, 0, len(c.Lines))
	total := decimal.Zero
	for _, l := range c.Lines {
		p, ok := prices[l.FoodID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: %d", ErrUnknownFood, l.FoodID)
		}
		sub := p.Mul(decimal.NewFromInt(int64(l.Quantity)))
		out = append(out, PricedLine{Line: l, Name: names[l.FoodID], UnitPrice: p, Subtotal: sub})
		total = total.Add(sub)
	}
	return out, total, nil
}

func (c *Cart) Total(prices map[int64]decimal.Decimal) (decimal.Decimal, error) {
	_, total, err := c.Price(prices, nil)
	return total, err
}
