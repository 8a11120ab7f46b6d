package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"pharmaledger/m/internal/alerts"
	"pharmaledger/m/internal/api"
	"pharmaledger/m/internal/config"
	"pharmaledger/m/internal/database"
	"pharmaledger/m/internal/migrations"
	"pharmaledger/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)
	seed.LoadCatalog(db, "assets/catalog.csv")

	handler := api.New(db, cfg.Secret)

	evaluator := alerts.New(db)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SweepSchedule, func() {
		if err := evaluator.Sweep(context.Background()); err != nil {
			log.Printf("alert sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("invalid sweep schedule %q: %v", cfg.SweepSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Printf("pharmacy back-office server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
