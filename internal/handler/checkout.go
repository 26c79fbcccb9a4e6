package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shopkart/internal/domain/order"
)

// placeOrder submits the current cart as an order. On success the cart is
// cleared exactly once; on any failure the cart is left untouched so the
// user can retry.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	state := h.store.State()

	o, err := h.checkout.PlaceOrder(r.Context(), state)
	if err != nil {
		if errors.Is(err, order.ErrEmptyCart) {
			writeError(w, r, http.StatusUnprocessableEntity, "cart is empty")
			return
		}
		zctx.From(r.Context()).Error("place order", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "order placement failed")
		return
	}

	h.store.Clear()

	writeJSON(w, r, http.StatusCreated, func(e *jx.Encoder) {
		h.encodeOrder(e, o)
	})
}
