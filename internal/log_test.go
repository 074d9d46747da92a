package internal

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func bufferLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Logger{level: level, out: log.New(&buf, "", 0)}, &buf
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel(" warning "))
	assert.Equal(t, LogLevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, LogLevelTrace, ParseLogLevel("trace"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
}

func TestLoggerLevelsAndComponent(t *testing.T) {
	l, buf := bufferLogger(LogLevelInfo)
	assert.Equal(t, LogLevelInfo, l.GetLevel())

	store := l.WithComponent("Store")
	store.Info("saved %d rows", 3)
	store.Debug("hidden")
	assert.Equal(t, "[INFO] [Store] saved 3 rows\n", buf.String())

	buf.Reset()
	store.WithComponent("Session").Warn("replaced")
	assert.Equal(t, "[WARN] [Session] replaced\n", buf.String())

	buf.Reset()
	l.Printf("goose: applied %d\n", 1)
	assert.Equal(t, "[INFO] goose: applied 1\n", buf.String())
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Error("nothing") })
}
