// Command create-admin provisions an admin account in the accounts database.
//
//	go run ./cmd/create-admin -username ops -email ops@example.com -password <secret>
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"flash-sale-api/internal/config"
	"flash-sale-api/internal/model"
	"flash-sale-api/internal/repository"
	"flash-sale-api/pkg/uid"
)

func main() {
	username := flag.String("username", "", "admin username")
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password (min 8 chars)")
	flag.Parse()

	if *username == "" || *email == "" || len(*password) < 8 {
		log.Fatal("usage: create-admin -username <name> -email <email> -password <min 8 chars>")
	}

	cfg := config.MustLoad()

	db, err := repository.OpenMySQL(cfg.UsersDB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to accounts database: %v", err)
	}
	defer db.Close()

	users, err := repository.NewMySQLUserRepository(db)
	if err != nil {
		log.Fatalf("Failed to initialize user repository: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &model.User{
		ID:           uid.New(),
		Username:     *username,
		Email:        *email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	log.Printf("Admin account created: %s (%s)", user.Username, user.ID)
}
