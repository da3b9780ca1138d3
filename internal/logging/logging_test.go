package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewWithWriter(Config{Level: "debug", Formatter: "json"}, buf)
	require.NoError(t, err)

	logger.Debug().Str("hash", "0x01").Msg("Transaction submitted")

	line := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "0x01", line["hash"])
	assert.Equal(t, "Transaction submitted", line["message"])
	assert.Contains(t, line, "time")
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewWithWriter(Config{Level: "WARN"}, buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	assert.Equal(t, 0, buf.Len())
	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWithWriter_ConsoleNoColor(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewWithWriter(Config{Formatter: "console_no_color"}, buf)
	require.NoError(t, err)

	logger.Info().Uint64("amount", 1_000).Msg("Transfer built")
	out := buf.String()
	assert.Contains(t, out, "Transfer built")
	assert.Contains(t, out, "amount=1000")
	assert.False(t, strings.Contains(out, "\x1b["), "no escape codes expected")
}

func TestNewWithWriter_Invalid(t *testing.T) {
	_, err := NewWithWriter(Config{Formatter: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = NewWithWriter(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfer.log")
	logger, closer, err := New(Config{Out: path})
	require.NoError(t, err)

	logger.Info().Msg("to file")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "to file")
}
