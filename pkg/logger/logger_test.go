package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{Level: DebugLevel, Output: &buf, JSON: true})

	log.WithFields(map[string]interface{}{"component": "dispatcher"}).
		Error(errors.New("fcm timeout"), "delivery failed", "notification_id", 12)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "delivery failed", entry["message"])
	assert.Equal(t, "fcm timeout", entry["error"])
	assert.Equal(t, "dispatcher", entry["component"])
	assert.EqualValues(t, 12, entry["notification_id"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{Level: WarnLevel, Output: &buf, JSON: true})

	log.Info("ignored")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
	assert.Equal(t, InfoLevel, ParseLevel("loud"))
}
