package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/vaultworks/mythicalvault/internal/db"
	"github.com/vaultworks/mythicalvault/internal/ledger"
)

func main() {
	username := flag.String("username", "", "Username for the new account")
	password := flag.String("password", "", "Password for the new account")
	coins := flag.Int64("coins", 0, "Initial coin balance")
	isAdmin := flag.Bool("admin", false, "Grant admin rights")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatalf("usage: go run cmd/adminutil/create_account/main.go -username someone -password secret [-coins 0] [-admin]")
	}
	if *coins < 0 {
		log.Fatalf("initial coin balance cannot be negative")
	}

	_ = godotenv.Load()

	// Initialize DB from environment variables
	db.Init()

	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	store := ledger.NewPGStore(db.Conn)
	account, err := store.CreateAccount(context.Background(), *username, string(hashed), *coins, *isAdmin)
	if errors.Is(err, ledger.ErrDuplicateUsername) {
		log.Fatalf("username already exists: %s", *username)
	}
	if err != nil {
		log.Fatalf("failed to create account: %v", err)
	}

	fmt.Printf("Account %s created (id=%s, coins=%d, admin=%v).\n",
		account.Username, account.ID, account.CoinBalance, account.IsAdmin)
}
