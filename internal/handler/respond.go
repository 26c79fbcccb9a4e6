package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shopkart/internal/cart"
	"github.com/xenking/shopkart/internal/domain/order"
	"github.com/xenking/shopkart/internal/domain/product"
)

// maxBodyBytes caps request bodies; every cart request is a few fields.
const maxBodyBytes = 1 << 16

// writeJSON encodes a response built by fn.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		zctx.From(r.Context()).Debug("write response", zap.Error(err))
	}
}

// writeError responds with the {code, message} error shape.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// readBody reads the capped request body.
func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

func (h *Handler) encodeLine(e *jx.Encoder, l cart.Line) {
	e.ObjStart()
	e.FieldStart("productId")
	e.Str(l.ProductID)
	e.FieldStart("name")
	e.Str(l.Name)
	e.FieldStart("sku")
	e.Str(l.SKU)
	e.FieldStart("unit")
	e.Str(l.Unit)
	e.FieldStart("imageUrl")
	e.Str(h.imageURL(l.ImageURL))
	e.FieldStart("unitPrice")
	e.Float64(l.UnitPrice.InexactFloat64())
	e.FieldStart("quantity")
	e.Int(l.Quantity)
	e.FieldStart("lineTotal")
	e.Float64(l.LineTotal.InexactFloat64())
	e.ObjEnd()
}

func (h *Handler) encodeState(e *jx.Encoder, s cart.State) {
	e.ObjStart()
	e.FieldStart("cartId")
	e.Str(s.ID)
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range s.Lines {
		h.encodeLine(e, l)
	}
	e.ArrEnd()
	e.FieldStart("itemCount")
	e.Int(s.ItemCount)
	e.FieldStart("subtotal")
	e.Float64(s.Subtotal.InexactFloat64())
	e.FieldStart("discount")
	e.Float64(s.Discount.InexactFloat64())
	e.FieldStart("tax")
	e.Float64(s.Tax.InexactFloat64())
	e.FieldStart("shipping")
	e.Float64(s.Shipping.InexactFloat64())
	e.FieldStart("grandTotal")
	e.Float64(s.GrandTotal.InexactFloat64())
	e.FieldStart("version")
	e.UInt64(s.Version)
	if s.Coupon != nil {
		e.FieldStart("couponCode")
		e.Str(s.Coupon.Code)
	}
	e.ObjEnd()
}

func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	e.Float64(p.Price.InexactFloat64())
	e.FieldStart("effectivePrice")
	e.Float64(p.EffectivePrice().InexactFloat64())
	e.FieldStart("discountRate")
	e.Float64(p.DiscountRate.InexactFloat64())
	e.FieldStart("unit")
	e.Str(p.Unit)
	e.FieldStart("sku")
	e.Str(p.SKU)
	e.FieldStart("imageUrl")
	e.Str(h.imageURL(p.ImageURL))
	e.ObjEnd()
}

func (h *Handler) encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range o.Lines {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(l.ProductID)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("unitPrice")
		e.Float64(l.UnitPrice.InexactFloat64())
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("itemCount")
	e.Int(o.ItemCount)
	e.FieldStart("subtotal")
	e.Float64(o.Subtotal.InexactFloat64())
	e.FieldStart("discount")
	e.Float64(o.Discount.InexactFloat64())
	e.FieldStart("tax")
	e.Float64(o.Tax.InexactFloat64())
	e.FieldStart("shipping")
	e.Float64(o.Shipping.InexactFloat64())
	e.FieldStart("total")
	e.Float64(o.Total.InexactFloat64())
	if o.CouponCode != "" {
		e.FieldStart("couponCode")
		e.Str(o.CouponCode)
	}
	e.ObjEnd()
}
