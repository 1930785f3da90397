package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configpkg "github.com/drblury/fieldcounter/internal/runtime/config"
)

func TestParseFlags(t *testing.T) {
	var out bytes.Buffer
	opts, err := parseFlags([]string{"-config=sink.yaml", "-field-name", "items.sku", "-transport=kafka"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "sink.yaml", opts.configPath)
	assert.Equal(t, "items.sku", opts.fieldName)
	assert.Equal(t, "kafka", opts.transport)
}

func TestParseFlagsUnknownFlag(t *testing.T) {
	var out bytes.Buffer
	if _, err := parseFlags([]string{"-z"}, &out); err == nil {
		t.Fatalf("expected error for unknown flag, got nil")
	}
	assert.Contains(t, out.String(), "flag provided but not defined")
}

func TestOptionsApply(t *testing.T) {
	cfg := configpkg.Config{FieldName: "color", PubSubSystem: "channel"}

	options{}.apply(&cfg)
	assert.Equal(t, "color", cfg.FieldName)
	assert.Equal(t, "channel", cfg.PubSubSystem)

	options{fieldName: " tags ", transport: "nats"}.apply(&cfg)
	assert.Equal(t, "tags", cfg.FieldName)
	assert.Equal(t, "nats", cfg.PubSubSystem)
}
