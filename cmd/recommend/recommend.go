package recommend

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tphakala/soilplanner/internal/app"
	"github.com/tphakala/soilplanner/internal/conf"
	"github.com/tphakala/soilplanner/internal/logger"
)

// Command creates a command that runs the pipeline once on a local image.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend [image]",
		Short: "Recommend plants for a soil image",
		Long:  "Classify the soil in a local image and print plant recommendations for the current location and season.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, settings, args[0], cmd)
		},
	}
}

func run(ctx context.Context, settings *conf.Settings, path string, cmd *cobra.Command) error {
	a, err := app.New(ctx, settings, logger.Global().Module("cli"))
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.RecommendFile(ctx, path)
	if err != nil {
		return err
	}
	return app.WriteResult(cmd.OutOrStdout(), res)
}
