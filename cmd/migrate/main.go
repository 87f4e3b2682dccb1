package main

import (
	"nft_marketplace/internal/config" // Application configuration
	"nft_marketplace/internal/db"     // Database connection and schema

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	conn, err := db.Open(cfg) // Connect with the configured driver
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		logrus.Fatalf("%v", err)
	}
	logrus.WithFields(logrus.Fields{"driver": cfg.DBDriver}).Info("Database migrated successfully")
}
