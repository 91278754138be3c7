package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/gridcat/gridcat/internal/cachemanager"
	"github.com/gridcat/gridcat/internal/catalog/application"
	"github.com/gridcat/gridcat/internal/catalog/domain"
	"github.com/gridcat/gridcat/internal/config"
	"github.com/gridcat/gridcat/internal/flags"
	"github.com/gridcat/gridcat/internal/infrastructure/sqlite"
	"github.com/gridcat/gridcat/internal/log"
	"github.com/gridcat/gridcat/internal/pubsub"
	"github.com/gridcat/gridcat/internal/tracing"
)

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gridcat",
	Short: "A dimensional catalog for observational datasets",
	Long: `Gridcat maintains a catalog of observational datasets and the tiled
storage units derived from them. Dimensions, domains, and reference systems
are registered once; dataset and storage types declare how data is organized
along those dimensions; ingesting a dataset fans it out across the storage
units its extents touch.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/gridcat/config.yaml)")
	rootCmd.PersistentFlags().String("db", "",
		"path to the catalog database")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug logging to ~/.gridcat/debug.log")

	_ = viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("auto_refresh", defaults.AutoRefresh)
	viper.SetDefault("cache.ttl_minutes", defaults.Cache.TTLMinutes)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .gridcat/config.yaml (current directory)
		// 2. ~/.config/gridcat/config.yaml (user config)
		if _, err := os.Stat(".gridcat/config.yaml"); err == nil {
			viper.SetConfigFile(".gridcat/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "gridcat"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .gridcat/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".gridcat/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)

	if debug || os.Getenv("GRIDCAT_DEBUG") != "" {
		home, err := os.UserHomeDir()
		if err == nil {
			logPath := filepath.Join(home, ".gridcat", "debug.log")
			if mkErr := os.MkdirAll(filepath.Dir(logPath), 0o700); mkErr == nil {
				_, _ = log.Init(logPath)
			}
		}
	}
}

// catalogContext is the wired service stack CLI commands run against.
type catalogContext struct {
	db       *sqlite.DB
	registry *application.RegistryService
	types    *application.TypeService
	ingest   *application.IngestService
	tracing  *tracing.Provider
	broker   *pubsub.Broker[pubsub.CatalogChange]
}

// openCatalog opens the configured database and wires the service stack.
func openCatalog() (*catalogContext, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	if dbPath == "" {
		return nil, fmt.Errorf("no catalog database path configured")
	}

	db, err := sqlite.NewDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	provider, err := newTracingProvider()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var cache cachemanager.CacheManager[string, *domain.ReferenceSystem]
	if cfg.Cache.IsEnabled() {
		ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
		if ttl <= 0 {
			ttl = cachemanager.DefaultExpiration
		}
		cache = cachemanager.NewInMemoryCacheManager[string, *domain.ReferenceSystem](
			"refsystems", ttl, cachemanager.DefaultCleanupInterval)
	}

	broker := pubsub.NewBroker[pubsub.CatalogChange]()

	registry := application.NewRegistryService(db.RegistryRepository(), cache, broker)
	types := application.NewTypeService(db.TypeRepository(), registry, broker)

	var tracer trace.Tracer
	if provider.Enabled() {
		tracer = provider.Tracer()
	}
	ingest := application.NewIngestService(registry, types,
		db.DatasetRepository(), db.StorageUnitRepository(), broker, tracer)

	featureFlags := flags.New(cfg.Flags)
	if featureFlags.Enabled(flags.FlagAutoApplyDefinitions) {
		if err := applyConfiguredDefinitions(registry, types); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &catalogContext{
		db:       db,
		registry: registry,
		types:    types,
		ingest:   ingest,
		tracing:  provider,
		broker:   broker,
	}, nil
}

// applyConfiguredDefinitions applies the definition documents listed in the
// config, resolving relative paths against the config file's directory.
func applyConfiguredDefinitions(registry *application.RegistryService, types *application.TypeService) error {
	baseDir := filepath.Dir(configFilePath())
	for _, file := range cfg.DefinitionFiles {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		defs, err := application.LoadDefinitionsFile(path)
		if err != nil {
			return fmt.Errorf("loading definitions %s: %w", path, err)
		}
		if err := defs.Apply(context.Background(), registry, types); err != nil {
			return fmt.Errorf("applying definitions %s: %w", path, err)
		}
		log.Debug(log.CatConfig, "Applied definition document", "path", path)
	}
	return nil
}

func newTracingProvider() (*tracing.Provider, error) {
	filePath := cfg.Tracing.FilePath
	if filePath == "" {
		filePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     filePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	return provider, nil
}

// Close releases the context's resources, flushing pending trace spans.
func (c *catalogContext) Close(cmd *cobra.Command) {
	c.broker.Close()
	if err := c.tracing.Shutdown(cmd.Context()); err != nil {
		log.ErrorErr(log.CatTrace, "Failed to shut down tracing", err)
	}
	if err := c.db.Close(); err != nil {
		log.ErrorErr(log.CatDB, "Failed to close catalog database", err)
	}
}

// configFilePath returns the loaded config file, or the default location.
func configFilePath() string {
	if path := viper.ConfigFileUsed(); path != "" {
		return path
	}
	return ".gridcat/config.yaml"
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
