package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/shestoi/enrollhub/internal/app"
	"github.com/shestoi/enrollhub/internal/config"
)

func main() {
	// .env опционален: в docker переменные приходят из compose
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	application, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	// Run блокируется до SIGINT/SIGTERM и graceful shutdown
	if err := application.Run(ctx); err != nil {
		log.Fatalf("Service error: %v", err)
	}
}
