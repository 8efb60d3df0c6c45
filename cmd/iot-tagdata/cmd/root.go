package cmd

import (
	"fmt"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/config"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/database"
	"github.com/spf13/cobra"
)

const serviceName = "iot-tagdata"

var (
	configFile string
	logLevel   string
	logFormat  string
	dbDriver   string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Multi-tenant IoT tag data service",
	Long:  `iot-tagdata stores typed readings for the tags of registered devices and serves time window queries over them.`,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "db-driver", "", "database driver (postgres, sqlite)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "sqlite database file, in-memory when empty")

	rootCmd.Flags().Int("port", 8880, "http server port")
}

//Execute runs the command selected on the command line
func Execute() error {
	return rootCmd.Execute()
}

//loadConfig reads the configuration and applies the flags given on the command line
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if flags.Changed("db-driver") {
		cfg.Database.Driver = dbDriver
	}
	if flags.Changed("db-path") {
		cfg.Database.Path = dbPath
	}
	if flags.Changed("port") {
		cfg.Service.Port, _ = flags.GetInt("port")
	}

	return cfg, nil
}

func newLogger(cfg *config.Config) (logging.Logger, error) {
	log, err := logging.NewLoggerWithConfig(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log configuration: %w", err)
	}
	return log, nil
}

//openDatastore connects to the configured database and migrates its schema
func openDatastore(log logging.Logger, cfg *config.Config) (database.Datastore, error) {
	var connect database.ConnectorFunc

	switch cfg.Database.Driver {
	case "postgres":
		connect = database.NewPostgreSQLConnector(log, cfg.Database)
	case "sqlite":
		connect = database.NewSQLiteConnector(cfg.Database.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	return database.NewDatabaseConnection(connect, log)
}
