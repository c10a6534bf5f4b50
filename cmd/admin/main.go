// Package main manages the staff flag of user accounts.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/repository"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin promote <email>   - Grant staff access")
	fmt.Println("  admin demote <email>    - Revoke staff access")
	fmt.Println("  admin list-staff        - List staff accounts")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		if err := setStaff(ctx, users, os.Args[2], command == "promote"); err != nil {
			log.Fatal(err)
		}
	case "list-staff":
		if err := listStaff(ctx, users); err != nil {
			log.Fatal(err)
		}
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func setStaff(ctx context.Context, users repository.UserRepository, email string, staff bool) error {
	user, err := users.SetStaff(ctx, strings.TrimSpace(email), staff)
	if err != nil {
		return fmt.Errorf("update %s: %w", email, err)
	}
	fmt.Printf("Updated %s (ID: %d): staff=%t\n", user.Username, user.ID, staff)
	return nil
}

func listStaff(ctx context.Context, users repository.UserRepository) error {
	staff, err := users.ListStaff(ctx)
	if err != nil {
		return fmt.Errorf("list staff: %w", err)
	}
	if len(staff) == 0 {
		fmt.Println("No staff accounts")
		return nil
	}
	for _, u := range staff {
		state := "active"
		if !u.IsActive {
			state = "inactive"
		}
		fmt.Printf("ID: %d | %s | %s | %s\n", u.ID, u.Username, u.Email, state)
	}
	return nil
}
