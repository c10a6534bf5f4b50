// Package main drops every storefront table. Development only.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"storefront/internal/config"
	"storefront/internal/database"
)

func main() {
	yes := flag.Bool("yes", false, "confirm dropping all tables")
	flag.Parse()
	if !*yes {
		log.Fatal("refusing to run without -yes")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if err := database.DropSchema(context.Background(), db, cfg); err != nil {
		log.Fatalf("failed to drop schema: %v", err)
	}
	fmt.Println("Database nuked.")
}
