package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidProductID = errors.New("product id must be greater than zero")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrInvalidUnitPrice = errors.New("unit price must not be negative")
)

// OrderItem is a line item owned by exactly one order.
// Subtotal always equals Quantity × UnitPrice once the item went through NewOrderItem or Apply.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int32
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// NewOrderItem validates the line and derives its subtotal.
func NewOrderItem(id, productID int64, quantity int32, unitPrice decimal.Decimal) (*OrderItem, error) {
	item := &OrderItem{ID: id}
	if err := item.Apply(productID, quantity, unitPrice); err != nil {
		return nil, err
	}
	return item, nil
}

// Apply merges new line values into the item, recomputing the subtotal.
// The item is left untouched when validation fails.
func (i *OrderItem) Apply(productID int64, quantity int32, unitPrice decimal.Decimal) error {
	if err := validateLine(productID, quantity, unitPrice); err != nil {
		return err
	}
	i.ProductID = productID
	i.Quantity = quantity
	i.UnitPrice = unitPrice
	i.Subtotal = LineSubtotal(quantity, unitPrice)
	return nil
}

// Validate enforces line invariants, including the subtotal relation.
func (i OrderItem) Validate() error {
	if err := validateLine(i.ProductID, i.Quantity, i.UnitPrice); err != nil {
		return err
	}
	if !i.Subtotal.Equal(LineSubtotal(i.Quantity, i.UnitPrice)) {
		return errors.New("item subtotal does not match quantity times unit price")
	}
	return nil
}

// LineSubtotal multiplies quantity by unit price.
func LineSubtotal(quantity int32, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt32(quantity))
}

func validateLine(productID int64, quantity int32, unitPrice decimal.Decimal) error {
	if productID <= 0 {
		return ErrInvalidProductID
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return ErrInvalidUnitPrice
	}
	return nil
}
