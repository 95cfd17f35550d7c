package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	l.Debug().Msg("hidden")
	require.Zero(t, buf.Len())

	l.Info().Str("target", "app").Msg("Building target")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "app", entry["target"])
	require.Equal(t, "info", entry[zerolog.LevelFieldName])
	require.Contains(t, entry, zerolog.TimestampFieldName)
}

func TestNew_Debug(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)

	l.Debug().Str("target", "vendor").Msg("Rebuilding")
	require.Contains(t, buf.String(), "Rebuilding")
	require.Contains(t, buf.String(), "vendor")
}
