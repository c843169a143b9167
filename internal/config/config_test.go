package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsMatchSpecTable(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 0, cfg.MaxInflight)
	assert.Equal(t, 100, cfg.MaxAwaitingRel)
	assert.Equal(t, 8*time.Second, cfg.AwaitRelTimeout)
	assert.Equal(t, 20*time.Second, cfg.UnackRetryInterval)
	assert.Equal(t, 48*time.Hour, cfg.ExpiredAfter)
	assert.Equal(t, time.Duration(0), cfg.CollectInterval)
}

func TestDumpWritesYAMLKeys(t *testing.T) {
	cfg := Default()
	cfg.MaxInflight = 10

	out, err := Dump(cfg)
	assert.NoError(t, err)
	assert.Contains(t, string(out), "max_inflight: 10")
}
