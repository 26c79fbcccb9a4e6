package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/shopkart/internal/domain/coupon"
	"github.com/xenking/shopkart/internal/pricing"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHOPKART_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (SHOPKART_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL for product images" flag:"image-base-url"`
	Snapshot     SnapshotConfig
	Pricing      PricingConfig
	Coupons      []CouponConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// SnapshotConfig controls where the cart state is persisted between runs.
type SnapshotConfig struct {
	Backend string `default:"file" usage:"Snapshot backend: file or postgres" flag:"snapshot-backend"`
	Path    string `default:"data/cart.json" usage:"Snapshot file path (file backend)" flag:"snapshot-path"`
	CartID  string `default:"" usage:"Fixed cart ID to resume; empty generates a new cart" flag:"cart-id"`
}

// PricingConfig carries the pricing policy as strings so it can come from
// YAML or environment variables without losing decimal precision.
type PricingConfig struct {
	FlatShippingFee       string `default:"10" usage:"Flat shipping fee" flag:"shipping-fee"`
	FreeShippingThreshold string `default:"100" usage:"Subtotal above which shipping is free" flag:"free-shipping-over"`
	AutoDiscountRate      string `default:"0.05" usage:"Automatic discount rate above the threshold" flag:"auto-discount-rate"`
	AutoDiscountThreshold string `default:"150" usage:"Subtotal above which the automatic discount applies" flag:"auto-discount-over"`
	TaxRate               string `default:"0" usage:"Tax rate applied to the discounted subtotal" flag:"tax-rate"`
	StackDiscounts        bool   `default:"false" usage:"Add coupon and automatic discounts instead of picking the larger" flag:"stack-discounts"`
}

// CouponConfig declares one coupon in the config file. An empty Coupons list
// falls back to the built-in rules.
type CouponConfig struct {
	Code        string `usage:"Coupon code"`
	Type        string `usage:"Coupon type: percentage or fixed"`
	Value       string `usage:"Percent points or fixed amount"`
	Description string `usage:"Human-readable description"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// Policy parses the pricing configuration into a pricing.Policy.
func (c PricingConfig) Policy() (pricing.Policy, error) {
	p := pricing.Policy{StackDiscounts: c.StackDiscounts}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"flat shipping fee", c.FlatShippingFee, &p.FlatShippingFee},
		{"free shipping threshold", c.FreeShippingThreshold, &p.FreeShippingThreshold},
		{"auto discount rate", c.AutoDiscountRate, &p.AutoDiscountRate},
		{"auto discount threshold", c.AutoDiscountThreshold, &p.AutoDiscountThreshold},
		{"tax rate", c.TaxRate, &p.TaxRate},
	}
	for _, f := range fields {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return pricing.Policy{}, errors.Wrapf(err, "parse %s %q", f.name, f.raw)
		}
		if v.IsNegative() {
			return pricing.Policy{}, errors.Errorf("%s must not be negative, got %s", f.name, f.raw)
		}
		*f.dst = v
	}
	return p, nil
}

// rules converts configured coupons into resolver rules. An empty list
// means the built-in default coupons.
func rules(coupons []CouponConfig) ([]coupon.Rule, error) {
	if len(coupons) == 0 {
		return coupon.DefaultRules(), nil
	}

	out := make([]coupon.Rule, 0, len(coupons))
	for _, c := range coupons {
		if c.Code == "" {
			return nil, errors.New("coupon code must not be empty")
		}
		var typ coupon.DiscountType
		switch c.Type {
		case "percentage":
			typ = coupon.DiscountPercentage
		case "fixed":
			typ = coupon.DiscountFixed
		default:
			return nil, errors.Errorf("coupon %s: unknown type %q", c.Code, c.Type)
		}
		v, err := decimal.NewFromString(c.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "coupon %s: parse value %q", c.Code, c.Value)
		}
		if v.IsNegative() {
			return nil, errors.Errorf("coupon %s: value must not be negative", c.Code)
		}
		out = append(out, coupon.Rule{
			Code:        c.Code,
			Type:        typ,
			Value:       v,
			Description: c.Description,
		})
	}
	return out, nil
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOPKART",
		Files:     []string{"config.yaml", "/etc/shopkart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SHOPKART_DATABASE_URL or DATABASE_URL")
	}
	switch cfg.Snapshot.Backend {
	case "file", "postgres":
	default:
		return nil, errors.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like DATABASE_URL and PORT to the application's
// SHOPKART_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
