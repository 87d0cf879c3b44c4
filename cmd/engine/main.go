package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/veridex/faceline/internal/api"
	"github.com/veridex/faceline/internal/bankload"
	"github.com/veridex/faceline/internal/config"
	"github.com/veridex/faceline/internal/db"
	"github.com/veridex/faceline/internal/engine"
	"github.com/veridex/faceline/internal/session"
)

func main() {
	log.Println("Starting the faceline assessment engine...")

	cfg := config.Load()

	var dbConn *db.PostgresStore
	if cfg.DatabaseURL != "" {
		conn, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: failed to connect to PostgreSQL, continuing without persistence. Error: %v", err)
		} else {
			dbConn = conn
			defer dbConn.Close()
			if err := dbConn.InitSchema(); err != nil {
				log.Printf("Warning: DB schema init failed: %v", err)
			}
		}
	} else {
		log.Println("DATABASE_URL not set — running with in-memory session state only, no event/snapshot persistence")
	}

	wsHub := api.NewHub()
	go wsHub.Run()

	eng := engine.New(time.Now, func(evt session.Event) {
		wsHub.BroadcastEvent(evt)
		if dbConn != nil {
			if err := dbConn.SaveEvent(context.Background(), evt); err != nil {
				log.Printf("Warning: failed to persist event %s for session %s: %v", evt.Type, evt.SessionID, err)
			}
		}
	})

	if raw, err := os.ReadFile(cfg.BankPath); err != nil {
		log.Printf("Warning: no bank artifact loaded at startup (%s): %v. Load one via POST /api/v1/banks.", cfg.BankPath, err)
	} else {
		pkg, err := eng.LoadBank(raw, bankload.Config{SigningKey: cfg.BankSigningKey})
		if err != nil {
			log.Printf("Warning: bank artifact at %s failed validation: %v", cfg.BankPath, err)
		} else {
			log.Printf("Loaded bank %s (hash %s)", pkg.Meta().BankID, pkg.Meta().BankHash)
		}
	}

	r := api.SetupRouter(eng, dbConn, wsHub)

	log.Printf("Engine listening on :%s\n", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
