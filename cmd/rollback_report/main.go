package main

import (
	"context"
	"log"
	"time"

	"masterboxer.com/posts-admin/config"
	"masterboxer.com/posts-admin/database"
	"masterboxer.com/posts-admin/services"
)

const reportWindow = 24 * time.Hour

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal("RollbackReport: config load failed:", err)
	}
	if cfg.FirebasePath == "" {
		log.Fatal("FIREBASE_CREDENTIALS_PATH not set")
	}

	db, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("RollbackReport: DB connection failed:", err)
	}
	defer db.Close()

	if err := services.InitFirebase(cfg.FirebasePath); err != nil {
		log.Printf("RollbackReport: Firebase init failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log.Println("📋 Running rollback report job")

	since := time.Now().UTC().Add(-reportWindow)
	entries, err := database.NewAuditLog(db).RolledBackSince(ctx, since)
	if err != nil {
		log.Fatal("RollbackReport: audit query failed:", err)
	}
	counts := database.CountRollbacks(entries)
	log.Printf("[RollbackReport] %d rolled back mutations across %d kinds since %v", len(entries), len(counts), since)

	client, err := services.GetMessagingClient()
	if err != nil {
		log.Fatal("RollbackReport: messaging unavailable:", err)
	}
	if _, err := services.SendRollbackDigest(ctx, client, cfg.AlertTopic, counts, since); err != nil {
		log.Fatal("RollbackReport: digest failed:", err)
	}

	log.Println("✅ Rollback report job finished")
}
