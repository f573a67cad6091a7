package log

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToFields(t *testing.T) {
	now := time.Now()
	err := errors.New("boom")

	tests := []struct {
		name  string
		input []any
		keys  []string
	}{
		{"empty input", []any{}, nil},
		{"string-int-bool", []any{"a", "x", "b", 123, "c", true}, []string{"a", "b", "c"}},
		{"time type", []any{"t", now}, []string{"t"}},
		{"duration", []any{"settle", 200 * time.Millisecond}, []string{"settle"}},
		{"bytes", []any{"data", []byte("xyz")}, []string{"data"}},
		{"error only", []any{err}, []string{"error"}},
		{"mixed field types", []any{"msg", "ok", zap.String("x", "y"), "num", 42}, []string{"msg", "x", "num"}},
		{"odd number of args", []any{"key1", "val1", "key2"}, []string{"key1", "arg#2"}},
		{"non-string key", []any{123, "value"}, []string{"invalid_key_1"}},
		{"map value", []any{"a", map[string]string{"xyz": "123"}}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)
			require.Len(t, fields, len(tt.keys))
			for i, f := range fields {
				assert.Equal(t, tt.keys[i], f.Key)
			}
		})
	}
}

func TestTypedField(t *testing.T) {
	assert.Equal(t, zapcore.StringType, typedField("k", "v").Type)
	assert.Equal(t, zapcore.DurationType, typedField("k", time.Second).Type)
	assert.Equal(t, zapcore.ErrorType, typedField("k", errors.New("x")).Type)
}

func TestRotateSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binsort.log")

	opts := NewOptions()
	opts.Format = "json"
	opts.OutputPaths = []string{"rotate://" + path}
	l := NewLogger(opts)

	l.Info("brick connected", "address", "00:16:53:4f:aa:01")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "brick connected")
	assert.Contains(t, string(data), "00:16:53:4f:aa:01")
}

func TestOptionsValidate(t *testing.T) {
	opts := NewOptions()
	assert.Empty(t, opts.Validate())

	opts.Format = "xml"
	opts.Rotation.MaxBackups = -1
	assert.Len(t, opts.Validate(), 2)
}
