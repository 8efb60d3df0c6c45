package cmd

import (
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/application"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the http api (default)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 8880, "http server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err = cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	log.Infof("Starting up %s ...", serviceName)

	db, err := openDatastore(log, cfg)
	if err != nil {
		log.Errorf("Failed to open datastore: %s", err.Error())
		return err
	}

	application.CreateRouterAndStartServing(log, cfg, db)

	return nil
}
