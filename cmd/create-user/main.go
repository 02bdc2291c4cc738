package main

import (
	"bufio"
	"fmt"
	"lexdesk/config"
	"lexdesk/db"
	"lexdesk/models"
	"lexdesk/services"
	"log"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(&models.Firm{}, &models.User{}, &models.Session{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)

	// Get user details
	fmt.Println("=== Create Admin User ===")
	fmt.Println()

	fmt.Print("Firm name: ")
	firmName, _ := reader.ReadString('\n')
	firmName = strings.TrimSpace(firmName)

	fmt.Print("Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(strings.ToLower(email))

	// Get password securely
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	password := string(passwordBytes)
	fmt.Println() // New line after password input

	// Validate inputs
	if firmName == "" || name == "" || email == "" || password == "" {
		log.Fatal("Firm name, name, email, and password are required")
	}

	if len(password) < 8 {
		log.Fatal("Password must be at least 8 characters long")
	}

	// Check if user already exists
	var existingUser models.User
	if err := db.DB.Where("email = ?", email).First(&existingUser).Error; err == nil {
		log.Fatalf("User with email %s already exists", email)
	}

	// Hash password
	hashedPassword, err := services.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	// Create the firm and its first admin together
	firm := &models.Firm{Name: firmName}
	if err := db.DB.Create(firm).Error; err != nil {
		log.Fatalf("Failed to create firm: %v", err)
	}

	user := &models.User{
		Name:        name,
		Email:       email,
		Password:    hashedPassword,
		FirmID:      &firm.ID,
		Role:        models.RoleAdmin,
		Permissions: models.PermissionFull,
		IsActive:    true,
	}

	if err := db.DB.Create(user).Error; err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Println()
	fmt.Println("✓ Admin user created successfully!")
	fmt.Printf("  Firm: %s (%s)\n", firm.Name, firm.Slug)
	fmt.Printf("  Name: %s\n", user.Name)
	fmt.Printf("  Email: %s\n", user.Email)
	fmt.Println()
	fmt.Println("They can now log in via POST /api/auth/login.")
}
