package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/pkg/constants"
	"github.com/turtacn/paytrust/pkg/logger"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestZapLogger_MasksAndEnriches(t *testing.T) {
	var buf bytes.Buffer
	log := NewZapLoggerWithWriter(&config.LogConfig{Level: "debug"}, &buf)

	ctx := context.WithValue(context.Background(), constants.ContextKeyRequestID, "req-1")
	log.WithComponent("signature").Info(ctx, "verified", logger.Fields{
		"client_key":    "partner-A",
		"client_secret": "0123456789abcdef",
	})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "verified", lines[0]["msg"])
	assert.Equal(t, "signature", lines[0]["component"])
	assert.Equal(t, "req-1", lines[0]["request_id"])
	assert.Equal(t, "partner-A", lines[0]["client_key"])
	assert.Equal(t, "0123***cdef", lines[0]["client_secret"])
}

func TestZapLogger_LevelFilterAndError(t *testing.T) {
	var buf bytes.Buffer
	log := NewZapLoggerWithWriter(&config.LogConfig{Level: "warn"}, &buf)

	log.Info(context.Background(), "dropped")
	log.Error(context.Background(), "failed", errors.New("boom"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "failed", lines[0]["msg"])
	assert.Equal(t, "boom", lines[0]["error"])
}

func TestNewZapLogger_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paytrust.log")
	log, err := NewZapLogger(&config.LogConfig{Level: "info", OutputPath: path, MaxSizeMB: 1})
	require.NoError(t, err)
	assert.NotPanics(t, func() { log.Info(context.Background(), "to file") })
}
