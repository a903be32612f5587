package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dvcrn/photos-gateway/internal/env"
	"github.com/rs/zerolog"
)

const (
	colorRed     = 31
	colorGreen   = 32
	colorYellow  = 33
	colorMagenta = 35

	colorBold = 1
)

var levelLabels = map[string]struct {
	label string
	color int
}{
	"trace": {"TRC", colorMagenta},
	"debug": {"DBG", colorYellow},
	"info":  {"INF", colorGreen},
	"warn":  {"WRN", colorRed},
	"error": {"ERR", colorRed},
	"fatal": {"FTL", colorRed},
	"panic": {"PNC", colorRed},
}

func colorize(s interface{}, c int) string {
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}

// New picks the console logger for development (ENV unset, "dev" or
// "development") and JSON otherwise. LOG_LEVEL overrides the default info level.
func New() zerolog.Logger {
	mode, _ := env.Get("ENV")
	levelName, _ := env.Get("LOG_LEVEL")

	var l zerolog.Logger
	switch mode {
	case "", "dev", "development":
		l = NewDevelopment(os.Stderr)
	default:
		l = NewProduction(os.Stderr)
	}
	return l.Level(parseLevel(levelName))
}

// NewDevelopment writes colored, human readable lines to out
func NewDevelopment(out io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:         out,
		TimeFormat:  "2006-01-02 15:04:05",
		FormatLevel: formatLevel,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

// NewProduction writes JSON lines with UNIX timestamps to out
func NewProduction(out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(out).With().Timestamp().Logger()
}

func formatLevel(i interface{}) string {
	ll, ok := i.(string)
	if !ok {
		return strings.ToUpper(fmt.Sprintf("%s", i))
	}
	if lbl, ok := levelLabels[ll]; ok {
		return colorize(lbl.label, lbl.color)
	}
	if len(ll) > 3 {
		ll = ll[:3]
	}
	return colorize(strings.ToUpper(ll), colorBold)
}

func parseLevel(name string) zerolog.Level {
	if name == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
