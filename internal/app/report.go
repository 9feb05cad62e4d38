package app

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/tphakala/soilplanner/internal/pipeline"
)

// WriteResult prints a result in the same order as the results page
func WriteResult(w io.Writer, res *pipeline.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	loc := res.Location
	fmt.Fprintf(tw, "Location:\t%s, %s, %s (%.4f, %.4f)\n", loc.City, loc.Region, loc.Country, loc.Latitude, loc.Longitude)
	fmt.Fprintf(tw, "Date:\t%s\n", res.CurrentDate())
	fmt.Fprintf(tw, "Season:\t%s\n", res.Season)
	fmt.Fprintf(tw, "Soil type:\t%s\n", res.SoilType)
	if d := res.Daylight; d != nil {
		fmt.Fprintf(tw, "Daylight:\t%s to %s (%s)\n", d.Sunrise.Format("15:04"), d.Sunset.Format("15:04"), d.DayLength.Round(time.Minute))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if res.Degraded {
		_, err := fmt.Fprintln(w, res.Notice)
		return err
	}
	if len(res.Plants) == 0 {
		_, err := fmt.Fprintln(w, "No plants recommended.")
		return err
	}

	fmt.Fprintln(tw, "#\tName\tScientific name\tCarbon absorption rate")
	for i, p := range res.Plants {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, p.Name, p.ScientificName, p.CarbonAbsorptionRate)
	}
	return tw.Flush()
}
