package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lchelper/hints_api/seed/seeders"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		email    = flag.String("email", "demo@example.com", "Demo account email")
		password = flag.String("password", "DemoPass123", "Demo account password")
		tier     = flag.String("tier", "premium", "Subscription tier: free, premium, pro")
		days     = flag.Int("days", 30, "Subscription period length in days")
		dbPath   = flag.String("db", "", "Database path (overrides DB_DATABASE env var)")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	databasePath := *dbPath
	if databasePath == "" {
		databasePath = os.Getenv("DB_DATABASE")
		if databasePath == "" {
			databasePath = "data/lchelper.db"
		}
	}

	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Printf("Connected to database: %s", databasePath)

	seeder := seeders.NewUserSeeder(db)
	if err := seeder.SeedDemoAccount(*email, *password, *tier, *days); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding completed successfully!")
}

func showHelp() {
	fmt.Println("Seed a demo account with an active subscription.")
	fmt.Println()
	fmt.Println("Usage: seed [flags]")
	flag.PrintDefaults()
}
