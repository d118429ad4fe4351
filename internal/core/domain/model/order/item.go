package order

import (
	"errors"
	"fmt"
	"strings"

	"gasdelivery/internal/pkg/errs"
	"gasdelivery/internal/pkg/guard"
)

var ErrItemIsNotConstructed = errs.NewValueIsRequiredError("item must be created via NewItem constructor")

// Item is one line of an order. Name and unit price are snapshotted from the
// catalog when the order is placed, so later catalog edits never change the
// order total.
type Item struct { //nolint:recvcheck //using for validation
	productID string
	name      string
	quantity  int
	unitPrice int64
	guard     guard.ConstructorGuard
}

// NewItem validates a catalog snapshot. unitPrice is in minor currency units
// and may be zero for promotional items; quantity must be positive.
func NewItem(productID, name string, quantity int, unitPrice int64) (Item, error) {
	item := Item{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		item.setProductID(productID),
		item.setName(name),
		item.setQuantity(quantity),
		item.setUnitPrice(unitPrice),
	); err != nil {
		return Item{}, err
	}

	return item, nil
}

func (i Item) Validate() error {
	return i.guard.Validate(ErrItemIsNotConstructed)
}

func (i Item) ProductID() string { return i.productID }
func (i Item) Name() string      { return i.name }
func (i Item) Quantity() int     { return i.quantity }
func (i Item) UnitPrice() int64  { return i.unitPrice }

// Subtotal is quantity times unit price.
func (i Item) Subtotal() int64 {
	return int64(i.quantity) * i.unitPrice
}

func (i *Item) setProductID(productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return errs.NewValueIsRequiredError("productId")
	}
	i.productID = productID
	return nil
}

func (i *Item) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("item name")
	}
	i.name = name
	return nil
}

func (i *Item) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity is invalid", fmt.Errorf("%d is not greater than 0", quantity))
	}
	i.quantity = quantity
	return nil
}

func (i *Item) setUnitPrice(unitPrice int64) error {
	if unitPrice < 0 {
		return errs.NewValueIsInvalidErrorWithCause("unit price is invalid", fmt.Errorf("%d is negative", unitPrice))
	}
	i.unitPrice = unitPrice
	return nil
}
