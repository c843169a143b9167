// Package config loads per-session configuration with spf13/viper,
// layering an optional YAML file under environment overrides the way
// hlindberg-mezquit's cobra/viper CLI does, and the way Pyr33x-goqtt ships
// a config.yaml for broker-wide settings.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// SessionConfig holds the per-session tunables, already converted to the
// units the session core wants (durations, not raw seconds/hours).
type SessionConfig struct {
	MaxInflight        int           // 0 = unbounded
	MaxAwaitingRel     int           // 0 = unbounded
	AwaitRelTimeout    time.Duration // timeout awaiting PUBREL / PUBCOMP
	UnackRetryInterval time.Duration // retransmit unacked QoS1/2
	ExpiredAfter       time.Duration // persistent-session TTL
	CollectInterval    time.Duration // 0 = off
}

// defaults are the out-of-the-box values applied before env/file overrides.
var defaults = map[string]interface{}{
	"max_inflight":         0,
	"max_awaiting_rel":     100,
	"await_rel_timeout":    8,
	"unack_retry_interval": 20,
	"expired_after":        48, // hours
	"collect_interval":     0,
}

// Load builds a viper instance bound to the BROKER_ environment prefix,
// optionally layering a YAML file (yamlPath == "" skips the file layer),
// and returns the resolved SessionConfig. Unset keys fall back to
// defaults.
func Load(yamlPath string) (SessionConfig, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix("broker")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if yamlPath != "" {
		v.SetConfigFile(yamlPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return SessionConfig{}, err
		}
	}

	return SessionConfig{
		MaxInflight:        v.GetInt("max_inflight"),
		MaxAwaitingRel:     v.GetInt("max_awaiting_rel"),
		AwaitRelTimeout:    time.Duration(v.GetInt("await_rel_timeout")) * time.Second,
		UnackRetryInterval: time.Duration(v.GetInt("unack_retry_interval")) * time.Second,
		ExpiredAfter:       time.Duration(v.GetInt("expired_after")) * time.Hour,
		CollectInterval:    time.Duration(v.GetInt("collect_interval")) * time.Second,
	}, nil
}

// Default returns the baked-in defaults with no environment or file
// overrides applied; tests use this rather than touching the environment.
func Default() SessionConfig {
	cfg, _ := Load("")
	return cfg
}

// yamlView is the on-disk shape written by Dump, matching the flat key
// names used in config.yaml style files (seconds/hours, not durations).
type yamlView struct {
	MaxInflight        int `yaml:"max_inflight"`
	MaxAwaitingRel     int `yaml:"max_awaiting_rel"`
	AwaitRelTimeout    int `yaml:"await_rel_timeout"`
	UnackRetryInterval int `yaml:"unack_retry_interval"`
	ExpiredAfter       int `yaml:"expired_after"`
	CollectInterval    int `yaml:"collect_interval"`
}

// Dump renders cfg back to the YAML shape operators hand-edit, for
// `sessiond config dump`-style tooling.
func Dump(cfg SessionConfig) ([]byte, error) {
	view := yamlView{
		MaxInflight:        cfg.MaxInflight,
		MaxAwaitingRel:     cfg.MaxAwaitingRel,
		AwaitRelTimeout:    int(cfg.AwaitRelTimeout / time.Second),
		UnackRetryInterval: int(cfg.UnackRetryInterval / time.Second),
		ExpiredAfter:       int(cfg.ExpiredAfter / time.Hour),
		CollectInterval:    int(cfg.CollectInterval / time.Second),
	}
	return yaml.Marshal(view)
}
