// Package app wires configuration, storage and the position service
// together for the HTTP and Lambda binaries.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ammiranda/position_service/config"
	"github.com/ammiranda/position_service/internal/service"
	"github.com/ammiranda/position_service/lock"
	"github.com/ammiranda/position_service/position"
	"github.com/ammiranda/position_service/repository"
)

// AttributeGrid is the name of the built-in grid over the migrated
// attribute tables
const AttributeGrid = "attribute"

// App holds the initialized dependencies of a running service
type App struct {
	Service *service.Positions
	Logger  *logrus.Logger

	repo repository.Repository
}

// NewLogger returns a logger formatted for env
func NewLogger(env config.Environment) *logrus.Logger {
	logger := logrus.New()
	if env == config.Production {
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// DefaultRegistry registers the attribute grid created by the migrations
func DefaultRegistry() *position.Registry {
	registry := position.NewRegistry()
	// The definition is static and complete
	_ = registry.Register(AttributeGrid, position.Definition{
		Table:              "attribute",
		ParentTable:        "attribute_group",
		IDField:            "id_attribute",
		PositionField:      "position",
		ParentIDField:      "id_attribute_group",
		ParentTableIDField: "id_attribute_group",
	})
	return registry
}

// Build initializes storage, grid definitions and the scope locker.
// Close must be called once the App is no longer used.
func Build(ctx context.Context, cfgProvider config.Provider, logger *logrus.Logger) (*App, error) {
	posCfg, err := config.GetPositionConfig(ctx, cfgProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to get position config: %w", err)
	}

	registry := DefaultRegistry()
	if posCfg.DefinitionsPath != "" {
		registry, err = position.LoadRegistryFile(posCfg.DefinitionsPath)
		if err != nil {
			return nil, err
		}
	}

	repo, err := repository.New(ctx, cfgProvider)
	if err != nil {
		return nil, err
	}
	if err := repo.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	locker, err := lock.NewFromEnv(ctx)
	if err != nil {
		repo.Cleanup(ctx)
		return nil, fmt.Errorf("failed to create locker: %w", err)
	}
	if err := locker.Initialize(); err != nil {
		repo.Cleanup(ctx)
		return nil, fmt.Errorf("failed to initialize locker: %w", err)
	}

	opts := []position.Option{
		position.WithDialect(repo.Dialect()),
		position.WithLogger(logger),
		position.WithConnectivityErrors(posCfg.ReportConnectivityErrors),
	}
	if posCfg.ErrorDomain != "" {
		opts = append(opts, position.WithErrorDomain(posCfg.ErrorDomain))
	}
	updater := position.NewUpdater(repo.DB(), posCfg.TablePrefix, opts...)

	logger.WithFields(logrus.Fields{
		"grids":        registry.Names(),
		"table_prefix": posCfg.TablePrefix,
	}).Info("position service initialized")

	return &App{
		Service: service.NewPositions(updater, registry, locker, logger),
		Logger:  logger,
		repo:    repo,
	}, nil
}

// Repository returns the storage the service writes through
func (a *App) Repository() repository.Repository {
	return a.repo
}

// Close releases the database connection
func (a *App) Close(ctx context.Context) error {
	return a.repo.Cleanup(ctx)
}
