package main

import (
	"context"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"github.com/ammiranda/position_service/config"
	"github.com/ammiranda/position_service/internal/app"
	"github.com/ammiranda/position_service/internal/lambda"
)

func main() {
	ctx := context.Background()

	cfgProvider, err := config.NewProvider(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create config provider")
	}
	logger := app.NewLogger(cfgProvider.GetEnvironment())

	// The connection is reused across invocations of a warm container
	a, err := app.Build(ctx, cfgProvider, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize service")
	}

	// Create handler with the position service
	handler := lambda.NewHandler(a.Service)

	// Start Lambda
	awslambda.Start(handler.Handle)
}
