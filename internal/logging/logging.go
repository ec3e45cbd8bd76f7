// Package logging builds the zerolog logger shared by the commands.
package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w at the named level. Pretty output
// uses a console writer with short timestamps; otherwise lines are JSON.
func New(w io.Writer, level string, pretty bool) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := w
	if pretty {
		cw := zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
			FormatCaller: func(i interface{}) string {
				s, _ := i.(string)
				return filepath.Base(s)
			},
		}
		cw.FormatLevel = func(i interface{}) string {
			s, _ := i.(string)
			return "[" + strings.ToUpper(s) + "]"
		}
		out = cw
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// ParseLevel accepts zerolog level names plus "off". Empty means warn.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "":
		return zerolog.WarnLevel, nil
	case "off", "none", "disabled":
		return zerolog.Disabled, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level %q: %w", level, err)
	}
	return lvl, nil
}
