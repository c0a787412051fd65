package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	ev := NewEvent(TopicSessionStarted, map[string]int64{"session_id": 7})

	_, err := uuid.Parse(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, TopicSessionStarted, ev.Topic)
	assert.False(t, ev.Time.IsZero())
}

func TestLogNotifier_Notify(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	NewLog(log).Notify(context.Background(), TopicLowStock, map[string]string{"material_name": "Профиль"})

	assert.Contains(t, buf.String(), "topic=material.low_stock")
	assert.Contains(t, buf.String(), "Профиль")
}
