package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fuel-station/logging"
)

func TestSetup_Level(t *testing.T) {
	logger, closer := logging.Setup(logging.Options{Level: "warn", Production: true})
	defer closer.Close()
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger, closer = logging.Setup(logging.Options{Level: "loud"})
	defer closer.Close()
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestSetup_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	// WHEN: logging with a file configured
	logger, closer := logging.Setup(logging.Options{Level: "info", Production: true, File: path})
	logger.Info().Str("shift_id", "812").Msg("shift closed")
	require.NoError(t, closer.Close())

	// THEN: the line is in the file as JSON
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"shift_id":"812"`)
	assert.Contains(t, string(data), `"message":"shift closed"`)
}
