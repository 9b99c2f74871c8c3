// Package app wires configuration, storage backends and services into the
// handles used by the console. Open builds them and Close releases them.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/jacentio/canopy/catalog"
	"github.com/jacentio/canopy/hierarchy"
	"github.com/jacentio/canopy/internal/config"
	"github.com/jacentio/canopy/internal/loggers"
	"github.com/jacentio/canopy/store"
	"github.com/jacentio/canopy/store/dynamostore"
	"github.com/jacentio/canopy/store/memstore"
	"github.com/jacentio/canopy/store/sqlstore"
)

// App holds the open store handles and the services built on them.
type App struct {
	Config   store.Config
	Registry *store.Registry
	Gatherer prometheus.Gatherer

	Organizations *store.Collection[hierarchy.Organization]
	Engine        *hierarchy.Engine
	Dictionaries  *catalog.Dictionaries
	Contents      *catalog.Contents
	Applications  *catalog.Applications

	logger  *slog.Logger
	metrics *store.Metrics
	db      *gorm.DB
	dynamo  *dynamodb.Client
}

// Open connects to the configured driver and builds every collection and
// service. The caller must Close the returned App.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	storeCfg := cfg.Store
	storeCfg.Validate()

	metrics := prometheus.NewRegistry()
	a := &App{
		Config:   storeCfg,
		Registry: store.NewRegistry(),
		Gatherer: metrics,
		logger:   logger,
		metrics:  store.NewMetrics(metrics),
	}
	a.Registry.Register(hierarchy.Schema)
	a.Registry.Register(catalog.DictionarySchema)
	a.Registry.Register(catalog.ContentSchema)
	a.Registry.Register(catalog.ApplicationSchema)

	if err := a.connect(ctx); err != nil {
		return nil, err
	}

	orgs, err := collection[hierarchy.Organization](a, hierarchy.Schema)
	if err != nil {
		a.Close()
		return nil, err
	}
	dicts, err := collection[catalog.Dictionary](a, catalog.DictionarySchema)
	if err != nil {
		a.Close()
		return nil, err
	}
	contents, err := collection[catalog.DictionaryContent](a, catalog.ContentSchema)
	if err != nil {
		a.Close()
		return nil, err
	}
	apps, err := collection[catalog.Application](a, catalog.ApplicationSchema)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Organizations = orgs
	a.Engine = hierarchy.NewEngine(orgs,
		hierarchy.WithLogger(logger),
		hierarchy.WithLevelPolicy(cfg.LevelPolicy),
	)
	a.Dictionaries = catalog.NewDictionaries(dicts, contents, catalog.WithLogger(logger))
	a.Contents = catalog.NewContents(contents, dicts, catalog.WithLogger(logger))
	a.Applications = catalog.NewApplications(apps, catalog.WithLogger(logger))

	logger.Debug("store opened", "driver", storeCfg.Driver, "tables", len(a.Registry.All()))

	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	switch a.Config.Driver {
	case store.DriverMemory:
		return nil

	case store.DriverSQLite:
		db, err := sqlstore.Open(a.Config.Path, loggers.NewGormSlogger(a.logger))
		if err != nil {
			return err
		}
		a.db = db
		return nil

	case store.DriverDynamoDB:
		opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(a.Config.Region)}
		if a.Config.Endpoint != "" {
			// DynamoDB Local accepts any credentials but still requires signed requests.
			opts = append(opts, awsConfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("local", "local", ""),
			))
		}
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
		a.dynamo = dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if a.Config.Endpoint != "" {
				o.BaseEndpoint = aws.String(a.Config.Endpoint)
			}
		})
		return nil
	}
	return fmt.Errorf("unknown driver %q", a.Config.Driver)
}

// collection builds the backend for schema on the open driver and wraps
// it in an instrumented Collection.
func collection[T store.Record](a *App, schema store.Schema) (*store.Collection[T], error) {
	var backend store.Backend[T]
	switch {
	case a.db != nil:
		b, err := sqlstore.New[T](a.db, schema, a.Config)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", schema.Table, err)
		}
		backend = b
	case a.dynamo != nil:
		backend = dynamostore.New[T](a.dynamo, schema, a.Config)
	default:
		backend = memstore.New[T](schema)
	}
	return store.NewCollection[T](backend, schema,
		store.WithLogger(a.logger),
		store.WithMetrics(a.metrics),
	), nil
}

// Migrate provisions storage for every registered schema. SQLite tables
// are migrated when the collections are built, so only DynamoDB has work
// to do here.
func (a *App) Migrate(ctx context.Context, timeout time.Duration) error {
	if a.dynamo == nil {
		return nil
	}
	for _, schema := range a.Registry.All() {
		if err := dynamostore.EnsureTable(ctx, a.dynamo, schema, a.Config, timeout); err != nil {
			return err
		}
		a.logger.Info("table ready", "table", a.Config.TableName(schema))
	}
	return nil
}

// Close releases the database handle. It is safe to call more than once.
func (a *App) Close() error {
	var errs []error
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			errs = append(errs, err)
		} else if err := sqlDB.Close(); err != nil {
			errs = append(errs, err)
		}
		a.db = nil
	}
	a.dynamo = nil
	return errors.Join(errs...)
}
