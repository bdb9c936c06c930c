// cmd/historian/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/wildfour/uno/internal/cache"
	"github.com/wildfour/uno/internal/database"
	"github.com/wildfour/uno/internal/historian"
)

func main() {
	logger := logrus.New()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	rdb, err := cache.ConnectRedis()
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}

	pool, err := database.ConnectDB(context.Background())
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	svc := historian.New(rdb, pool, logger)
	go svc.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	svc.Stop()
	logger.Info("historian shutdown complete")
}
