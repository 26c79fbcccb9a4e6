package cart

import (
	"github.com/xenking/shopkart/internal/domain/coupon"
	"github.com/xenking/shopkart/internal/domain/product"
	"github.com/xenking/shopkart/internal/pricing"
)

// Command is the tagged set of cart transitions. Every command is a total
// function over State: apply never produces an illegal state.
type Command interface {
	isCommand()
}

// AddItem merges Quantity into an existing line for the product, or creates
// a new line with the product's effective price snapshotted.
type AddItem struct {
	Product  product.Product
	Quantity int
}

// RemoveItem deletes the line for ProductID. Removing an absent line is a
// benign no-op.
type RemoveItem struct {
	ProductID string
}

// SetQuantity replaces the line's quantity outright. A quantity of zero or
// less removes the line; setting an absent line is a no-op.
type SetQuantity struct {
	ProductID string
	Quantity  int
}

// ApplyCoupon attaches an already-resolved coupon rule. A new coupon
// replaces the previous one, never stacks on it.
type ApplyCoupon struct {
	Rule coupon.Rule
}

// RemoveCoupon detaches the applied coupon, if any.
type RemoveCoupon struct{}

// Clear resets the cart to the empty initial state.
type Clear struct{}

// Replace swaps in a previously persisted state wholesale. Totals are
// re-derived from the loaded lines so a stale snapshot cannot smuggle in
// inconsistent numbers.
type Replace struct {
	State State
}

func (AddItem) isCommand() {}
func (RemoveItem) isCommand() {}
func (SetQuantity) isCommand() {}
func (ApplyCoupon) isCommand() {}
func (RemoveCoupon) isCommand() {}
func (Clear) isCommand() {}
func (Replace) isCommand() {}

// apply is the single transition function over cart state. It returns a new
// State; the input is never mutated. Validation that can fail (positive
// quantity, coupon resolution) happens before a command is built, so apply
// itself is total.
func apply(s State, cmd Command, calc *pricing.Calculator) State {
	switch c := cmd.(type) {
	case AddItem:
		next := s
		next.Lines = cloneLines(s.Lines)
		merged := false
		for i := range next.Lines {
			if next.Lines[i].ProductID == c.Product.ID {
				next.Lines[i].Quantity += c.Quantity
				merged = true
				break
			}
		}
		if !merged {
			next.Lines = append(next.Lines, Line{
				ProductID: c.Product.ID,
				Name:      c.Product.Name,
				SKU:       c.Product.SKU,
				Unit:      c.Product.Unit,
				ImageURL:  c.Product.ImageURL,
				UnitPrice: c.Product.EffectivePrice(),
				Quantity:  c.Quantity,
			})
		}
		return recompute(next, calc)

	case RemoveItem:
		return removeLine(s, c.ProductID, calc)

	case SetQuantity:
		if c.Quantity <= 0 {
			return removeLine(s, c.ProductID, calc)
		}
		next := s
		next.Lines = cloneLines(s.Lines)
		for i := range next.Lines {
			if next.Lines[i].ProductID == c.ProductID {
				next.Lines[i].Quantity = c.Quantity
				return recompute(next, calc)
			}
		}
		// Absent line: no-op, but totals are still consistent.
		return recompute(next, calc)

	case ApplyCoupon:
		next := s
		next.Lines = cloneLines(s.Lines)
		next.Coupon = &AppliedCoupon{Code: c.Rule.Code, Rule: c.Rule}
		return recompute(next, calc)

	case RemoveCoupon:
		next := s
		next.Lines = cloneLines(s.Lines)
		next.Coupon = nil
		return recompute(next, calc)

	case Clear:
		return emptyState(s.ID, calc)

	case Replace:
		next := c.State
		next.Lines = cloneLines(c.State.Lines)
		// Drop lines a hand-edited or corrupt snapshot could carry.
		kept := next.Lines[:0]
		for _, l := range next.Lines {
			if l.Quantity > 0 {
				kept = append(kept, l)
			}
		}
		next.Lines = kept
		if next.ID == "" {
			next.ID = s.ID
		}
		return recompute(next, calc)

	default:
		return s
	}
}

// removeLine drops the line for productID when present and recomputes.
func removeLine(s State, productID string, calc *pricing.Calculator) State {
	next := s
	next.Lines = make([]Line, 0, len(s.Lines))
	for _, l := range s.Lines {
		if l.ProductID != productID {
			next.Lines = append(next.Lines, l)
		}
	}
	return recompute(next, calc)
}
