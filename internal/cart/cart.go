package cart

import (
	"github.com/google/uuid"
)

// Line is one product selection in a register's cart. The name, price and
// stock fields are snapshots of the product at the time of the last mutation.
type Line struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Stock          int       `json:"stock"`
	Quantity       int       `json:"quantity"`
}

// SubtotalCents is the line contribution to the cart total.
func (l Line) SubtotalCents() int {
	return l.UnitPriceCents * l.Quantity
}

// Cart is the in-progress, not-yet-settled selection for one register.
type Cart struct {
	RegisterID string `json:"register_id"`
	Lines      []Line `json:"lines"`
}

// TotalCents sums unit price times quantity across all lines. The result is
// a pure function of the lines and independent of insertion order.
func (c *Cart) TotalCents() int {
	total := 0
	for _, line := range c.Lines {
		total += line.SubtotalCents()
	}
	return total
}

// ItemCount is the total quantity across all lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// ActiveLines returns the lines with a positive quantity. Lines clamped to
// zero stay visible in the cart but never settle.
func (c *Cart) ActiveLines() []Line {
	active := make([]Line, 0, len(c.Lines))
	for _, line := range c.Lines {
		if line.Quantity > 0 {
			active = append(active, line)
		}
	}
	return active
}

func (c *Cart) findLine(productID uuid.UUID) *Line {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return &c.Lines[i]
		}
	}
	return nil
}

func (c *Cart) removeLine(productID uuid.UUID) {
	kept := c.Lines[:0]
	for _, line := range c.Lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	c.Lines = kept
}
