package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ammiranda/position_service/config"
	"github.com/ammiranda/position_service/handlers"
	"github.com/ammiranda/position_service/internal/app"
)

func main() {
	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Fatal("Failed to load .env")
	}

	// Create context
	ctx := context.Background()

	// Initialize config provider
	cfgProvider, err := config.NewProvider(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create config provider")
	}
	logger := app.NewLogger(cfgProvider.GetEnvironment())

	a, err := app.Build(ctx, cfgProvider, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize service")
	}
	defer a.Close(ctx)

	if cfgProvider.GetEnvironment() == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery(), gin.LoggerWithWriter(logger.Writer()))
	handlers.NewPositionHandler(a.Service).RegisterRoutes(r)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	// Start server
	logger.WithField("addr", addr).Info("starting position service")
	if err := r.Run(addr); err != nil {
		logger.WithError(err).Fatal("Failed to start server")
	}
}
