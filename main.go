package main

import (
	"context"
	"log"
	"os"

	"epi-etl/app"
	"epi-etl/config"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

// run führt genau einen Pipeline-Lauf aus und liefert den Exit-Code.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Config load error: %v", err)
		return 1
	}

	logging, err := app.NewLogger(cfg.LogDevelopment)
	if err != nil {
		log.Printf("can't initialize zap logger: %v", err)
		return 1
	}
	defer logging.Sync()

	a, err := app.New(cfg, logging)
	if err != nil {
		logging.Error("Setup failed", zap.Error(err))
		return 1
	}
	defer a.Close()

	if !a.Pipeline.Run(context.Background()) {
		logging.Error("Pipeline run failed")
		return 1
	}
	return 0
}
