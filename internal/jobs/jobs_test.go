package jobs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStreamTrim_KeepsChannelAndCadence(t *testing.T) {
	task, delay := nextStreamTrim(streamTrimPayload{
		Channel:         "admin:requests",
		IntervalSeconds: 3600,
	})

	// The follow-up task must re-enqueue with the same payload, so the
	// trim chain never loses its channel or interval.
	assert.Equal(t, TypeStreamTrim, task.Type())
	assert.Equal(t, time.Hour, delay)

	var p streamTrimPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "admin:requests", p.Channel)
	assert.Equal(t, int64(3600), p.IntervalSeconds)
}
