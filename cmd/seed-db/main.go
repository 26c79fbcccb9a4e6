// Command seed-db loads the product catalog into PostgreSQL from a JSON
// file. It is idempotent: products are upserted by ID, so re-running it
// after editing the catalog is safe.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/shopkart/internal/storage/postgres"
)

type productJSON struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	Unit         string          `json:"unit"`
	SKU          string          `json:"sku"`
	Image        string          `json:"image"`
}

const upsertProductSQL = `INSERT INTO products (id, name, price, discount_rate, unit, sku, image_url)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		price = EXCLUDED.price,
		discount_rate = EXCLUDED.discount_rate,
		unit = EXCLUDED.unit,
		sku = EXCLUDED.sku,
		image_url = EXCLUDED.image_url`

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return seedProducts(ctx, pool, productsFile)
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if p.ID == "" || p.Name == "" {
			return errors.Errorf("product with empty id or name: %+v", p)
		}
		if p.Price.IsNegative() || p.DiscountRate.IsNegative() || p.DiscountRate.GreaterThan(decimal.NewFromInt(1)) {
			return errors.Errorf("product %s: invalid price or discount rate", p.ID)
		}

		if _, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Price, p.DiscountRate, p.Unit, p.SKU, p.Image,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}
