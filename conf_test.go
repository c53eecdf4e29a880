package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfIsValid(t *testing.T) {
	conf := DefaultConf()

	require.NoError(t, conf.Validate())
	assert.Equal(t, 1000, conf.BatchSize)
	assert.Equal(t, 3, conf.FlushInterval)
}

func TestConfValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Conf)
		wantErr string
	}{
		{"zero batch", func(c *Conf) { c.BatchSize = 0 }, "batch_size"},
		{"negative interval", func(c *Conf) { c.FlushInterval = -2 }, "flush_interval"},
		{"empty tag key", func(c *Conf) { c.GlobalTags = []GlobalTag{{Value: "v"}} }, "global_tags[0]"},
		{"bad level", func(c *Conf) { c.Logging.Level = "loud" }, "logging.level"},
		{"file without folder", func(c *Conf) { c.Logging.File = "w.log" }, "logging.folder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := DefaultConf()
			tt.mutate(conf)

			err := conf.Validate()
			require.ErrorIs(t, err, ErrInvalidConf)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfValidateReportsAllProblems(t *testing.T) {
	conf := &Conf{BatchSize: -1, FlushInterval: 0}

	err := conf.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_size must be positive, got -1; flush_interval must be positive, got 0")
}
