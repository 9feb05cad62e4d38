package observability

import (
	"fmt"

	"github.com/tphakala/soilplanner/internal/logger"
)

// promLogger adapts Logger to promhttp.Logger
type promLogger struct {
	log logger.Logger
}

func newPromLogger(log logger.Logger) promLogger {
	if log == nil {
		log = logger.Global().Module("metrics")
	}
	return promLogger{log: log}
}

func (l promLogger) Println(v ...any) {
	l.log.Error("Metrics handler error", logger.String("detail", fmt.Sprint(v...)))
}
