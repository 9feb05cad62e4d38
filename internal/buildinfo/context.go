// Package buildinfo carries link-time metadata, kept apart from user configuration
package buildinfo

import "fmt"

// UnknownValue is reported for metadata the build did not stamp
const UnknownValue = "unknown"

// Context contains build-time metadata that is not user-configurable.
// It is injected at startup from main's ldflags variables.
type Context struct {
	version   string
	buildDate string
}

// NewContext creates a Context; empty values read back as UnknownValue
func NewContext(version, buildDate string) *Context {
	return &Context{version: version, buildDate: buildDate}
}

// Version returns the release version
func (c *Context) Version() string {
	if c == nil || c.version == "" {
		return UnknownValue
	}
	return c.version
}

// BuildDate returns the build timestamp
func (c *Context) BuildDate() string {
	if c == nil || c.buildDate == "" {
		return UnknownValue
	}
	return c.buildDate
}

// Release is the Sentry release name
func (c *Context) Release() string {
	return "soilplanner@" + c.Version()
}

// String formats the metadata for the version command
func (c *Context) String() string {
	return fmt.Sprintf("Soil Planner %s (built %s)", c.Version(), c.BuildDate())
}
