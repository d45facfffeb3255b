package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapLogger_WritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZapLoggerTo(&buf)
	ctx := context.Background()

	log.With("module", "coordinator").Warn(ctx, "propagation failed", "course_id", "c1")
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"msg":"propagation failed"`)
	assert.Contains(t, out, `"module":"coordinator"`)
	assert.Contains(t, out, `"course_id":"c1"`)
}

func TestZapLogger_ContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewZapLoggerTo(&buf)

	ctx := WithContext(context.Background(), "user_id", "mia")
	log.Info(ctx, "course added", "course_id", "c1")
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.Contains(t, out, `"user_id":"mia"`)
	assert.Contains(t, out, `"course_id":"c1"`)
}

func TestNew_Backends(t *testing.T) {
	var buf bytes.Buffer

	l, err := New(BackendSlog, &buf)
	require.NoError(t, err)
	l.Info(context.Background(), "hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	l, err = New(BackendZap, &buf)
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, l)

	_, err = New("logrus", nil)
	assert.Error(t, err)
}

func TestNop_With(t *testing.T) {
	var l Logger = Nop{}
	l = l.With("a", 1)
	l.Info(context.Background(), "dropped")
}
