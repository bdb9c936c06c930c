// cmd/server/main.go
package main

import (
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/wildfour/uno/internal/auth"
	"github.com/wildfour/uno/internal/cache"
	"github.com/wildfour/uno/internal/game"
	"github.com/wildfour/uno/internal/handlers"
	"github.com/wildfour/uno/internal/metrics"
	"github.com/wildfour/uno/internal/middleware"
	"github.com/wildfour/uno/internal/session"
)

func main() {
	auth.Init()

	logger := logrus.New()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Action history is optional; without Redis the server runs with history
	// disabled rather than refusing to start.
	var recorder game.Recorder
	if os.Getenv("HISTORY_ENABLED") != "false" {
		if rdb, err := cache.ConnectRedis(); err != nil {
			logger.Warnf("redis unavailable, action history disabled: %v", err)
		} else {
			recorder = cache.NewPublisher(rdb, logger)
		}
	}

	mets := metrics.New("uno")
	hub := handlers.NewHub(logger)
	registry := session.NewRegistry()
	manager := session.NewManager(registry, hub, recorder, mets, logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.LogMiddleware(logger)(
		handlers.WSHandler(logger, hub, manager, mets),
	))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
