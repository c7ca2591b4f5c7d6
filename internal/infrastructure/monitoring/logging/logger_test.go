package logging

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newBufferLogger() (Logger, *zaptest.Buffer) {
	buf := &zaptest.Buffer{}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), buf, zapcore.DebugLevel)
	return &zapLogger{z: zap.New(core)}, buf
}

func lastEntry(t *testing.T, buf *zaptest.Buffer) map[string]interface{} {
	t.Helper()
	lines := buf.Lines()
	require.NotEmpty(t, lines)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: LevelDebug, Format: format, OutputPaths: []string{"stderr"}})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_BadOutputPath(t *testing.T) {
	_, err := NewLogger(LogConfig{OutputPaths: []string{"/nonexistent-dir/for/sure/log.txt"}})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestZapLogger_TypedFields(t *testing.T) {
	l, buf := newBufferLogger()

	l.Info("resolved",
		Descriptor("C1SP3"),
		Molecule("mol-1"),
		Int("count", 3),
		Int64("bytes", 42),
		Float64("value", 0.5),
		Bool("hit", true),
		Duration("elapsed", 2*time.Millisecond),
		Strings("names", []string{"WPath", "WPol"}),
		Err(errors.New("boom")),
		Any("extra", map[string]int{"a": 1}),
	)

	entry := lastEntry(t, buf)
	assert.Equal(t, "resolved", entry["msg"])
	assert.Equal(t, "C1SP3", entry["descriptor"])
	assert.Equal(t, "mol-1", entry["molecule_id"])
	assert.EqualValues(t, 3, entry["count"])
	assert.Equal(t, true, entry["hit"])
	assert.Equal(t, "boom", entry["error"])
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, buf := newBufferLogger()

	child := l.Named("resolver").With(String("session", "s1"))
	child.Warn("cache miss")

	entry := lastEntry(t, buf)
	assert.Equal(t, "resolver", entry["logger"])
	assert.Equal(t, "s1", entry["session"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNewLoggerFromCore_Observed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core)

	l.Debug("one")
	l.Error("two", Err(nil))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "<nil>", logs.All()[1].ContextMap()["error"])
}

func TestNopLogger_AllMethodsNoOp(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Debug("msg")
		l.Info("msg")
		l.Warn("msg")
		l.Error("msg")
		l.With(String("k", "v")).Named("x").Info("msg")
	})
	assert.NoError(t, l.Sync())
}

func TestDefault_SetAndGet(t *testing.T) {
	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	l, buf := newBufferLogger()
	SetDefault(l)
	SetDefault(nil)

	Default().Info("via default")
	assert.True(t, strings.Contains(buf.String(), "via default"))
}

//Personal.AI order the ending
