package season

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/soilplanner/internal/season"
)

// Command creates a command that prints the season for a date
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "season [YYYY-MM-DD]",
		Short: "Print the season for a date (default: today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now()
			if len(args) == 1 {
				var err error
				date, err = time.ParseInLocation(time.DateOnly, args[0], time.Local)
				if err != nil {
					return fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", args[0], err)
				}
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", date.Format(time.DateOnly), season.For(date))
			return err
		},
	}
}
