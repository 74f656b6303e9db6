// Command seed-db runs migrations and loads the catalog, discounts, and
// taxes from a JSON seed file into PostgreSQL.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/akarev/checkout-api/internal/domain/catalog"
	"github.com/akarev/checkout-api/internal/domain/currency"
	"github.com/akarev/checkout-api/internal/domain/order"
	"github.com/akarev/checkout-api/internal/repository"
)

type seedFile struct {
	Items []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Price       int64  `json:"price"`
		Currency    string `json:"currency"`
	} `json:"items"`
	Discounts []struct {
		Name    string          `json:"name"`
		Percent decimal.Decimal `json:"percent"`
	} `json:"discounts"`
	Taxes []struct {
		Name    string          `json:"name"`
		Percent decimal.Decimal `json:"percent"`
	} `json:"taxes"`
}

func main() {
	var (
		databaseURL string
		seedPath    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedPath, "seed-file", "db/seed/catalog.json", "path to seed JSON file")
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

	if err := run(ctx, databaseURL, seedPath); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedPath string) error {
	slog.Info("reading seed file", slog.String("path", seedPath))

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse seed JSON")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	items := repository.NewItemRepository(pool)
	discounts := repository.NewDiscountRepository(pool)
	taxes := repository.NewTaxRepository(pool)

	// The three tables have no cross references, so they load in parallel.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for _, row := range seed.Items {
			ccy, err := currency.Parse(row.Currency)
			if err != nil {
				return errors.Wrapf(err, "item %q", row.Name)
			}
			it := catalog.Item{
				Name:        row.Name,
				Description: row.Description,
				Price:       row.Price,
				Currency:    ccy,
			}
			if err := items.Insert(gctx, &it); err != nil {
				return errors.Wrapf(err, "seed item %q", row.Name)
			}
			slog.Info("seeded item", slog.Int64("id", it.ID), slog.String("name", it.Name))
		}
		return nil
	})

	g.Go(func() error {
		for _, row := range seed.Discounts {
			d := order.Discount{Name: row.Name, Percent: row.Percent}
			if err := discounts.Insert(gctx, &d); err != nil {
				return errors.Wrapf(err, "seed discount %q", row.Name)
			}
			slog.Info("seeded discount", slog.Int64("id", d.ID), slog.String("name", d.Name))
		}
		return nil
	})

	g.Go(func() error {
		for _, row := range seed.Taxes {
			t := order.Tax{Name: row.Name, Percent: row.Percent}
			if err := taxes.Insert(gctx, &t); err != nil {
				return errors.Wrapf(err, "seed tax %q", row.Name)
			}
			slog.Info("seeded tax", slog.Int64("id", t.ID), slog.String("name", t.Name))
		}
		return nil
	})

	return g.Wait()
}
