// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LineTotal computes the monetary total of one order line from the catalog
// unit price and the promo mode. Prices and quantities are persisted as text,
// so arithmetic goes through decimals rather than floats.
//
//	regular:  price * quantity
//	discount: price * quantity - discount
//	free:     0 (the free-item quantity and remarks describe the giveaway)
func LineTotal(unitPrice, quantity, promo, discount string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(unitPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid unit price %q: %w", unitPrice, err)
	}
	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q: %w", quantity, err)
	}

	switch promo {
	case PromoFree:
		return decimal.Zero, nil
	case PromoDiscount:
		d := decimal.Zero
		if discount != "" {
			d, err = decimal.NewFromString(discount)
			if err != nil {
				return decimal.Zero, fmt.Errorf("invalid discount %q: %w", discount, err)
			}
		}
		total := price.Mul(qty).Sub(d)
		if total.IsNegative() {
			total = decimal.Zero
		}
		return total, nil
	default:
		return price.Mul(qty), nil
	}
}

// OrderTotal sums the already-computed line totals into the order total,
// rendered as text the way totals are persisted.
func OrderTotal(lines []SalesOrderItem) string {
	total := decimal.Zero
	for i := range lines {
		total = total.Add(decimal.NewFromFloat(lines[i].Total))
	}
	return total.StringFixed(2)
}
