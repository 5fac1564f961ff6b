package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/mdawahq/mdawa-transfer/internal/audit"
	"github.com/mdawahq/mdawa-transfer/internal/auth"
	"github.com/mdawahq/mdawa-transfer/internal/config"
	"github.com/mdawahq/mdawa-transfer/internal/encryption"
	"github.com/mdawahq/mdawa-transfer/internal/store"
)

func main() {
	// Parse command line flags
	name := flag.String("name", "", "Clinician name")
	email := flag.String("email", "", "Clinician email")
	password := flag.String("password", "", "Clinician password")
	role := flag.String("role", auth.RoleDoctor, "Account role (DOCTOR or ADMIN)")
	flag.Parse()

	if *name == "" || *email == "" || *password == "" {
		log.Fatal("Name, email, and password are required. Use -name, -email, and -password flags")
	}

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("No configuration file found, using defaults: %v", err)
		cfg = config.Default()
	}

	var enc encryption.Service
	key := os.Getenv("STORE_KEY")
	if key == "" {
		key = cfg.Storage.Key
	}
	if key != "" {
		enc, err = encryption.NewService(key)
		if err != nil {
			log.Fatalf("Failed to initialize store encryption: %v", err)
		}
	}

	st, err := store.NewFileStore(cfg.Storage.Path, enc)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	ctx := context.Background()
	auditService := audit.NewService(nil)
	authService := auth.NewService(st, auditService, auth.Config{
		JWTSecret: os.Getenv("JWT_SECRET"),
	})

	user, err := authService.Register(ctx, *name, *email, *password, *role)
	if err != nil {
		log.Fatalf("Failed to create clinician account: %v", err)
	}

	fmt.Printf("Successfully created clinician account:\n")
	fmt.Printf("ID: %s\n", user.ID)
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("Role: %s\n", user.Role)

	// Verify the password hash round-trips
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(*password)); err != nil {
		log.Printf("WARNING: Password verification failed: %v", err)
	} else {
		log.Printf("Password hash verified successfully")
	}
}
