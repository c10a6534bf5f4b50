// Command seed loads reference data and fake demo content.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/middleware"
	"storefront/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of customers to create")
	numProducts := flag.Int("products", 120, "Number of products to create")
	numVacancies := flag.Int("vacancies", 25, "Number of vacancies to create")
	shouldClean := flag.Bool("clean", false, "Delete existing rows before seeding")
	referenceOnly := flag.Bool("reference-only", false, "Load regions, cities, areas, attributes and categories only")
	flag.Parse()

	log := middleware.Logger
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	if *referenceOnly {
		if err := seed.Reference(ctx, db, nil); err != nil {
			log.Error("reference seeding failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("reference data loaded")
		return
	}

	res, err := seed.Seed(ctx, db, seed.Options{
		NumUsers:     *numUsers,
		NumProducts:  *numProducts,
		NumVacancies: *numVacancies,
		ShouldClean:  *shouldClean,
	})
	if err != nil {
		log.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Created %d users, %d products and %d vacancies.\n", res.Users, res.Products, res.Vacancies)
	fmt.Printf("All seeded users have the password: %s\n", seed.DefaultPassword)
}
