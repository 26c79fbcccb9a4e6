// Package handler exposes the cart engine to the local UI shell over HTTP.
// It is a thin consumer: all invariants live in the cart store, and no
// handler ever leaves the cart partially updated.
package handler

import (
	"net/http"

	"github.com/xenking/shopkart/internal/cart"
	"github.com/xenking/shopkart/internal/domain/order"
	"github.com/xenking/shopkart/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product and cart
	// responses. When empty, paths are returned as stored.
	ImageBaseURL string
}

// Handler routes the cart API, delegating to the cart store, the product
// catalog, and the checkout service.
type Handler struct {
	store        *cart.Store
	products     product.Repository
	checkout     *order.Service
	imageBaseURL string
}

// New constructs a Handler with the required dependencies.
func New(cfg Config, store *cart.Store, products product.Repository, checkout *order.Service) *Handler {
	return &Handler{
		store:        store,
		products:     products,
		checkout:     checkout,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes returns the API mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("POST /api/cart/items", h.addItem)
	mux.HandleFunc("PUT /api/cart/items/{id}", h.setQuantity)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.removeItem)
	mux.HandleFunc("POST /api/cart/coupon", h.applyCoupon)
	mux.HandleFunc("DELETE /api/cart/coupon", h.removeCoupon)

	mux.HandleFunc("POST /api/checkout", h.placeOrder)

	return mux
}

// imageURL resolves a stored image path against the configured base URL.
func (h *Handler) imageURL(path string) string {
	if path == "" {
		return ""
	}
	return h.imageBaseURL + path
}
