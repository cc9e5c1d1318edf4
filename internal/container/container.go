// Package container wires the application's dependencies from configuration.
// Components receive everything they need through their constructors.
package container

import (
	"context"
	"fmt"

	"fjacquet/sci-ledger/internal/auth"
	"fjacquet/sci-ledger/internal/blob"
	"fjacquet/sci-ledger/internal/categorizer"
	"fjacquet/sci-ledger/internal/config"
	"fjacquet/sci-ledger/internal/feed"
	"fjacquet/sci-ledger/internal/importer"
	"fjacquet/sci-ledger/internal/invoices"
	"fjacquet/sci-ledger/internal/ledger"
	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/repository"
	"fjacquet/sci-ledger/internal/resolver"
	"fjacquet/sci-ledger/internal/statement"
	"fjacquet/sci-ledger/internal/store"
	"fjacquet/sci-ledger/internal/ventilation"
)

// Container holds all application dependencies. It is immutable after
// creation; fields are reached through getters.
type Container struct {
	logger      logging.Logger
	config      *config.Config
	store       *store.ConfigStore
	categorizer *categorizer.Categorizer
	resolver    *resolver.Resolver
	repo        *repository.Repository
	broker      *feed.Broker
	parser      *statement.Parser
	importer    *importer.Importer
	calls       *ledger.CallGenerator
	ventilation *ventilation.Session
	blobs       *blob.Store
	invoices    *invoices.Service
	auth        *auth.Authenticator
}

// NewContainer creates and wires all application dependencies, logging
// through a logrus adapter configured from cfg.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(ctx, cfg, logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format))
}

// NewContainerWithLogger is NewContainer with an explicit logger.
func NewContainerWithLogger(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	configStore := store.NewConfigStore(cfg.Files.RulesFile, cfg.Files.TenantsFile, logger)
	cat := categorizer.NewCategorizer(configStore, logger)

	res, err := resolver.Load(configStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant keywords: %w", err)
	}

	repo, err := repository.Open(cfg.Database.DSN, logger)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}

	broker := feed.NewBroker(logger)
	repo.SetPublisher(broker)

	parser := statement.NewParser(statement.Options{
		PreambleLines: cfg.Import.PreambleLines,
		Delimiter:     cfg.DelimiterRune(),
	}, cat, logger)

	blobs, err := blob.New(blob.Options{
		Root:       cfg.Blob.Root,
		SigningKey: cfg.Blob.SigningKey,
		BaseURL:    cfg.Blob.BaseURL,
		URLTTL:     cfg.Blob.URLTTL,
	}, logger)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	c := &Container{
		logger:      logger,
		config:      cfg,
		store:       configStore,
		categorizer: cat,
		resolver:    res,
		repo:        repo,
		broker:      broker,
		parser:      parser,
		importer:    importer.New(repo, parser, res, cat, logger),
		calls:       ledger.NewCallGenerator(repo, logger),
		ventilation: ventilation.NewSession(repo, ventilation.Config{
			Markers:     cfg.Ventilation.Markers,
			Description: cfg.Ventilation.Description,
		}, logger),
		blobs:    blobs,
		invoices: invoices.NewService(repo, blobs, logger),
		auth:     auth.New(cfg.Auth.JWTSecret, cfg.Auth.LocalUser),
	}

	logger.Debug("Container initialized",
		logging.F("driver", repo.Driver()),
		logging.F("tenant_keywords", res.Len()))
	return c, nil
}

// GetLogger returns the container's logger.
func (c *Container) GetLogger() logging.Logger { return c.logger }

// GetConfig returns the configuration the container was built from.
func (c *Container) GetConfig() *config.Config { return c.config }

// GetStore returns the YAML mapping store.
func (c *Container) GetStore() *store.ConfigStore { return c.store }

// GetCategorizer returns the description classifier.
func (c *Container) GetCategorizer() *categorizer.Categorizer { return c.categorizer }

// GetResolver returns the tenant resolver.
func (c *Container) GetResolver() *resolver.Resolver { return c.resolver }

// GetRepository returns the data store.
func (c *Container) GetRepository() *repository.Repository { return c.repo }

// GetBroker returns the in-process change feed.
func (c *Container) GetBroker() *feed.Broker { return c.broker }

// GetParser returns the statement parser.
func (c *Container) GetParser() *statement.Parser { return c.parser }

// GetImporter returns the import pipeline.
func (c *Container) GetImporter() *importer.Importer { return c.importer }

// GetCallGenerator returns the monthly call generator.
func (c *Container) GetCallGenerator() *ledger.CallGenerator { return c.calls }

// GetVentilation returns the ventilation editor.
func (c *Container) GetVentilation() *ventilation.Session { return c.ventilation }

// GetBlobStore returns the document store.
func (c *Container) GetBlobStore() *blob.Store { return c.blobs }

// GetInvoices returns the invoice service.
func (c *Container) GetInvoices() *invoices.Service { return c.invoices }

// GetAuthenticator returns the session token authenticator.
func (c *Container) GetAuthenticator() *auth.Authenticator { return c.auth }

// Close releases the database and stops the change feed.
func (c *Container) Close() error {
	c.broker.Close()
	return c.repo.Close()
}
