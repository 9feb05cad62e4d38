package httpcontroller

import (
	"fmt"
	"html/template"
	"time"
)

// GetTemplateFunctions returns a map of functions that can be used in templates
func GetTemplateFunctions() template.FuncMap {
	return template.FuncMap{
		"add":         addFunc,
		"even":        even,
		"clock":       clock,
		"dayLength":   dayLength,
		"coordinates": coordinates,
	}
}

// simple math functions
func addFunc(a, b int) int { return a + b }

// even reports whether index is even; used for zebra striping the plant table
func even(index int) bool {
	return index%2 == 0
}

// clock formats a time as HH:MM
func clock(t time.Time) string {
	return t.Format("15:04")
}

// dayLength formats a duration as "14 h 5 min"
func dayLength(d time.Duration) string {
	d = d.Round(time.Minute)
	return fmt.Sprintf("%d h %d min", int(d.Hours()), int(d.Minutes())%60)
}

// coordinates formats a latitude/longitude pair with hemisphere letters
func coordinates(lat, lon float64) string {
	ns, ew := "N", "E"
	if lat < 0 {
		ns, lat = "S", -lat
	}
	if lon < 0 {
		ew, lon = "W", -lon
	}
	return fmt.Sprintf("%.4f° %s, %.4f° %s", lat, ns, lon, ew)
}
