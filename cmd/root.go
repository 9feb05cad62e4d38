package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/soilplanner/cmd/config"
	"github.com/tphakala/soilplanner/cmd/recommend"
	"github.com/tphakala/soilplanner/cmd/season"
	"github.com/tphakala/soilplanner/cmd/serve"
	"github.com/tphakala/soilplanner/cmd/version"
	"github.com/tphakala/soilplanner/internal/buildinfo"
	"github.com/tphakala/soilplanner/internal/conf"
	"github.com/tphakala/soilplanner/internal/errors"
	"github.com/tphakala/soilplanner/internal/logger"
)

// RootCommand creates and returns the root command. settings is filled in
// before any subcommand that needs configuration runs.
func RootCommand(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "soilplanner",
		Short:         "Soil Planner CLI",
		Long:          "Recommend carbon-absorbing plants from a photo of your soil, for your location and season.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: search standard locations)")

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd); err != nil {
		panic(err)
	}

	// Commands that run without loading configuration
	versionCmd := version.Command(build)
	seasonCmd := season.Command()

	subcommands := []*cobra.Command{
		serve.Command(settings),
		recommend.Command(settings),
		config.Command(settings, &configFile),
		seasonCmd,
		versionCmd,
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd || cmd == seasonCmd || cmd.Annotations["skipConfig"] == "true" {
			return nil
		}

		loaded, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		*settings = *loaded
		settings.Version = build.Version()
		settings.BuildDate = build.BuildDate()

		return initialize(settings, build)
	}

	return rootCmd
}

// initialize sets up logging and telemetry once settings are loaded
func initialize(settings *conf.Settings, build *buildinfo.Context) error {
	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	if settings.Sentry.Enabled {
		if err := errors.InitSentry(settings.Sentry.DSN, settings.Sentry.Environment, build.Release()); err != nil {
			// Telemetry is optional; keep running without it
			central.Module("telemetry").Warn("Sentry disabled", logger.Error(err))
		}
	}

	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command) error {
	flags := rootCmd.PersistentFlags()
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.String("gemini-apikey-file", "", "Path to a file holding the Gemini API key")
	flags.String("geolocation-endpoint", "", "IP geolocation endpoint (ip-api.com compatible)")

	bindings := map[string]string{
		"debug":                "debug",
		"gemini.apikeyfile":    "gemini-apikey-file",
		"geolocation.endpoint": "geolocation-endpoint",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}

	return nil
}
