package serve

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/soilplanner/internal/app"
	"github.com/tphakala/soilplanner/internal/conf"
)

// Command creates a new command for running the web service.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web service",
		Long:  "Serve the upload form and results page until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunService(settings)
		},
	}

	if err := setupFlags(cmd); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("host", "", "Listen address, empty for all interfaces")
	cmd.Flags().StringP("port", "p", "", "Listen port")
	cmd.Flags().String("uploads", "", "Directory for request-scoped upload files")
	cmd.Flags().Int("max-upload-mb", 0, "Upload size limit in megabytes")
	cmd.Flags().Bool("metrics", false, "Expose Prometheus metrics")

	bindings := map[string]string{
		"webserver.host":        "host",
		"webserver.port":        "port",
		"uploads.dir":           "uploads",
		"webserver.maxuploadmb": "max-upload-mb",
		"metrics.enabled":       "metrics",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}

	return nil
}
