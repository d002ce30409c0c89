// Package domain holds the order model shared by the checkout and webhook paths.
package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// LineItem is one cart entry as submitted at checkout. UnitPriceCents is the
// per-unit price; Size is the optional garment size the shop sells by.
type LineItem struct {
	Name           string
	Size           string
	Quantity       int64
	UnitPriceCents int64
}

// Contact carries the customer contact and shipping fields collected by the
// cart before the provider redirect.
type Contact struct {
	Email      string
	FirstName  string
	LastName   string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Country    string
}

func (c Contact) FullName() string {
	switch {
	case c.FirstName == "" && c.LastName == "":
		return ""
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// Order is the pending order persisted before the provider session is
// created. It is written once and never mutated afterwards; the webhook path
// only reads it by id.
type Order struct {
	ID         string
	TotalCents int64
	Items      []LineItem
	Contact    Contact
	CreatedAt  time.Time
}

func NewOrder(id string, totalCents int64, items []LineItem, contact Contact) (*Order, error) {
	if id == "" {
		return nil, errors.New("order ID is required")
	}
	if totalCents <= 0 {
		return nil, NewInvalidTotalError(totalCents)
	}

	return &Order{
		ID:         id,
		TotalCents: totalCents,
		Items:      items,
		Contact:    contact,
		CreatedAt:  time.Now(),
	}, nil
}

// TotalAmount renders the total as a display string, e.g. "49.90".
func (o *Order) TotalAmount() string {
	return FormatCents(o.TotalCents)
}

// FormatCents renders a cent amount with two decimals.
func FormatCents(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}

// ToCents converts a decimal amount as received on the wire into cents,
// rounding to the nearest cent. Returns an error for non-finite or
// non-positive totals.
func ToCents(total float64) (int64, error) {
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return 0, NewInvalidTotalError(int64(total * 100))
	}
	return int64(math.Round(total * 100)), nil
}
