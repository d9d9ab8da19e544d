package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/vaultworks/mythicalvault/internal/db"
)

func main() {
	username := flag.String("username", "", "Username of the account to promote to admin")
	flag.Parse()

	if *username == "" {
		log.Fatalf("usage: go run cmd/adminutil/promote_admin/main.go -username someone")
	}

	_ = godotenv.Load()

	// Initialize DB from environment variables
	db.Init()

	ct, err := db.Conn.Exec(context.Background(),
		`UPDATE accounts SET is_admin = TRUE WHERE username = $1`, *username)
	if err != nil {
		log.Fatalf("failed to promote account to admin: %v", err)
	}

	if ct.RowsAffected() == 0 {
		log.Fatalf("no account found with username: %s", *username)
	}

	fmt.Printf("Account %s promoted to admin.\n", *username)
}
