/*
Package logging builds zerolog loggers from a small configuration.

Every field is optional:

	level = "info"             # debug/info/warn/error
	formatter = "console"      # console, console_no_color, json
	caller = false             # print source file and line
	timefieldformat = "15:04:05"
	out = "stderr"             # stdout, stderr or a file path

Loggers are returned, never installed globally; pass them to the components that log.
*/
package logging

import (
	"io"
	"os"
	"strings"

	colorable "github.com/mattn/go-colorable"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config selects the level, format and destination of a logger
type Config struct {
	Level           string `mapstructure:"level"`
	Formatter       string `mapstructure:"formatter"`
	Caller          bool   `mapstructure:"caller"`
	TimeFieldFormat string `mapstructure:"timefieldformat"`
	Out             string `mapstructure:"out"`
}

// Formatters
const (
	FormatterJSON           = "json"
	FormatterConsole        = "console"
	FormatterConsoleNoColor = "console_no_color"
)

var errEmptyName = errors.New("empty output name")

// New builds a logger from config.  The returned closer releases an output file, if one was opened.
func New(config Config) (zerolog.Logger, io.Closer, error) {
	out, err := getOutput(config.Out)
	if errors.Is(err, errEmptyName) {
		out, err = os.Stderr, nil
	}
	if err != nil {
		return zerolog.Nop(), nil, errors.Wrapf(err, "open log output %q", config.Out)
	}
	var closer io.Closer = nopCloser{}
	if out != os.Stdout && out != os.Stderr {
		closer = out
	}
	logger, err := NewWithWriter(config, out)
	if err != nil {
		_ = closer.Close()
		return zerolog.Nop(), nil, err
	}
	return logger, closer, nil
}

// NewWithWriter builds a logger writing to out, ignoring config.Out
func NewWithWriter(config Config, out io.Writer) (zerolog.Logger, error) {
	timeFormat := zerolog.TimeFieldFormat
	if config.TimeFieldFormat != "" {
		timeFormat = config.TimeFieldFormat
	}

	var writer io.Writer
	switch strings.ToLower(config.Formatter) {
	case "", FormatterJSON:
		writer = out
	case FormatterConsole:
		if file, ok := out.(*os.File); ok {
			writer = zerolog.ConsoleWriter{Out: colorable.NewColorable(file), NoColor: false, TimeFormat: timeFormat}
		} else {
			writer = zerolog.ConsoleWriter{Out: out, NoColor: false, TimeFormat: timeFormat}
		}
	case FormatterConsoleNoColor:
		writer = zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: timeFormat}
	default:
		return zerolog.Nop(), errors.Errorf("invalid formatter %q, only console/console_no_color/json", config.Formatter)
	}

	level := zerolog.InfoLevel
	if config.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(config.Level))
		if err != nil {
			return zerolog.Nop(), errors.Wrapf(err, "invalid log level %q", config.Level)
		}
		level = parsed
	}

	context := zerolog.New(writer).Level(level).With().Timestamp()
	if config.Caller {
		context = context.Caller()
	}
	return context.Logger(), nil
}

// getOutput returns the writer named by outName: stdout, stderr or a file path opened for append
func getOutput(outName string) (*os.File, error) {
	switch outName {
	case "":
		return nil, errEmptyName
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return os.OpenFile(outName, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
