package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-oauth-gateway/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.SetupWriter(&buf, "PROD", "warn")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger.Info().Msg("dropped")
	logger.Warn().Str("component", "test").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "kept", line["message"])
	require.Equal(t, "test", line["component"])
}

func TestSetupWriter_BadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logging.SetupWriter(&buf, "PROD", "loud")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
