package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/shopkart/internal/cart"
	"github.com/xenking/shopkart/internal/domain/coupon"
	"github.com/xenking/shopkart/internal/domain/product"
)

// addItemRequest is the body of POST /api/cart/items.
type addItemRequest struct {
	ProductID string
	Quantity  int
}

func decodeAddItem(b []byte) (addItemRequest, error) {
	var req addItemRequest
	d := jx.DecodeBytes(b)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			v, err := d.Str()
			req.ProductID = v
			return err
		case "quantity":
			v, err := d.Int()
			req.Quantity = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return req, errors.Wrap(err, "decode add item request")
	}
	if req.ProductID == "" {
		return req, errors.New("productId is required")
	}
	return req, nil
}

func decodeQuantity(b []byte) (int, error) {
	var quantity int
	seen := false
	d := jx.DecodeBytes(b)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		v, err := d.Int()
		quantity = v
		seen = err == nil
		return err
	})
	if err != nil {
		return 0, errors.Wrap(err, "decode quantity request")
	}
	if !seen {
		return 0, errors.New("quantity is required")
	}
	return quantity, nil
}

func decodeCouponCode(b []byte) (string, error) {
	var code string
	d := jx.DecodeBytes(b)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "code" {
			return d.Skip()
		}
		v, err := d.Str()
		code = v
		return err
	})
	if err != nil {
		return "", errors.Wrap(err, "decode coupon request")
	}
	if code == "" {
		return "", errors.New("code is required")
	}
	return code, nil
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	s := h.store.State()
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		h.encodeState(e, s)
	})
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "cannot read request body")
		return
	}

	req, err := decodeAddItem(body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "product "+req.ProductID+" not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "catalog lookup failed")
		return
	}

	s, err := h.store.AddItem(*p, req.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrInvalidQuantity) {
			writeError(w, r, http.StatusUnprocessableEntity, "quantity must be greater than 0")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "add item failed")
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		h.encodeState(e, s)
	})
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "cannot read request body")
		return
	}

	quantity, err := decodeQuantity(body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s := h.store.SetQuantity(r.PathValue("id"), quantity)
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		h.encodeState(e, s)
	})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	s := h.store.RemoveItem(r.PathValue("id"))
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		h.encodeState(e, s)
	})
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "cannot read request body")
		return
	}

	code, err := decodeCouponCode(body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.store.ApplyCoupon(r.Context(), code)
	if err != nil {
		if errors.Is(err, coupon.ErrInvalidCoupon) {
			writeError(w, r, http.StatusUnprocessableEntity, "invalid coupon code")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "apply coupon failed")
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		h.encodeState(e, s)
	})
}

func (h *Handler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	s := h.store.RemoveCoupon()
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		h.encodeState(e, s)
	})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	s := h.store.Clear()
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		h.encodeState(e, s)
	})
}
