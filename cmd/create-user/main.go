package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/database"
	"github.com/techsynergy/campus-backend/internal/logger"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/repository"
	"github.com/techsynergy/campus-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	var userType string
	flag.StringVar(&userType, "type", string(model.UserTypeFaculty), "Account type: faculty or student")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Sessions are never issued here, so the auth service runs without Redis.
	userService := service.NewUserService(
		repository.NewUserRepository(pool),
		repository.NewProfileRepository(pool),
		service.NewAuthService(cfg, nil),
	)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("=== Create New %s Account ===\n", userType)

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	password := string(bytePassword)
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	u, err := userService.Create(ctx, name, email, password, model.UserType(userType))
	if err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! %s '%s' (%s) created with ID: %d\n", u.UserType, u.Name, u.Email, u.ID)
}
