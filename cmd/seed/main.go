package main

import (
	"flag"
	"fmt"
	"time"

	"blogforge/pkg/config"
	"blogforge/pkg/database"
	"blogforge/pkg/ledger"
	"blogforge/pkg/logger"
	"blogforge/pkg/payments"
	authmodel "blogforge/services/auth/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	if err := seedDatabase(db, cfg.SignupGrant, log); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

func seedDatabase(db *gorm.DB, signupGrant int, log *logger.Logger) error {
	ledgerRepo := ledger.NewRepository(db)

	testUsers := []struct {
		email    string
		username string
		password string
	}{
		{"alice@test.com", "alice_writes", "password123"},
		{"bob@test.com", "bob_writes", "password123"},
		{"charlie@test.com", "charlie_writes", "password123"},
	}

	userIDs := make([]string, 0, len(testUsers))

	for _, userData := range testUsers {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(userData.password), bcrypt.DefaultCost)

		user := &authmodel.UserModel{
			Email:    userData.email,
			Username: userData.username,
			Password: string(hashedPassword),
			Role:     "member",
			IsActive: true,
		}

		var existingUser authmodel.UserModel
		result := db.Where("email = ? OR username = ?", user.Email, user.Username).First(&existingUser)
		if result.Error == nil {
			log.Info("User %s already exists, skipping", user.Username)
			userIDs = append(userIDs, existingUser.ID)
			continue
		}

		if err := db.Create(user).Error; err != nil {
			log.Error("Failed to create user %s: %v", user.Username, err)
			continue
		}

		log.Info("Created user: %s (%s)", user.Username, user.Email)
		userIDs = append(userIDs, user.ID)

		if _, _, err := ledgerRepo.EnsureBalance(user.ID, signupGrant); err != nil {
			log.Error("Failed to grant signup credits for user %s: %v", user.Username, err)
		}
	}

	if len(userIDs) == 0 {
		return fmt.Errorf("no users available to seed")
	}

	// Give the first user a settled purchase so the transaction history and
	// replay protection have data to show.
	plan, _ := payments.GetPlan("basic")
	orderID := fmt.Sprintf("order_%s_%s_%d", plan.ID, userIDs[0], time.Now().Unix())
	description := fmt.Sprintf("%s purchase - order: %s", plan.Name, orderID)
	remaining, already, err := ledgerRepo.CreditWithKey(userIDs[0], plan.Credits, description, orderID)
	if err != nil {
		log.Error("Failed to seed purchase for user %s: %v", userIDs[0], err)
	} else if !already {
		log.Info("Seeded %s purchase for user %s (balance now %d)", plan.ID, userIDs[0], remaining)
	}

	return nil
}
