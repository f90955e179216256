package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, tt := range []struct {
		level  string
		pretty bool
	}{
		{"debug", true},
		{"info", false},
		{"not-a-level", false},
	} {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New(tt.level, tt.pretty)
			require.NoError(t, err)
			assert.NotNil(t, logger)
			logger.WithFields(map[string]any{"test": true}).Debug("logger built")
		})
	}
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithField("k", "v").Info("discarded")
	})
}
