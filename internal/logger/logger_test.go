package logger

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	Init()
	assert.NotNil(t, InfoLogger)
	assert.NotNil(t, WarnLogger)
	assert.NotNil(t, ErrorLogger)
	assert.NotNil(t, DebugLogger)
}

func captureInfo() *bytes.Buffer {
	var buf bytes.Buffer
	InfoLogger = log.New(&buf, "INFO: ", 0)
	return &buf
}

func captureError() *bytes.Buffer {
	var buf bytes.Buffer
	ErrorLogger = log.New(&buf, "ERROR: ", 0)
	return &buf
}

func TestInfo(t *testing.T) {
	buf := captureInfo()
	Info("test message")
	assert.Contains(t, buf.String(), "test message")
}

func TestInfof(t *testing.T) {
	buf := captureInfo()
	Infof("coins granted: %d", 500)
	assert.Contains(t, buf.String(), "coins granted: 500")
}

func TestError(t *testing.T) {
	buf := captureError()
	Error("test error")
	assert.Contains(t, buf.String(), "test error")
}

func TestErrorf(t *testing.T) {
	buf := captureError()
	Errorf("unlock failed: %s", "insufficient funds")
	assert.Contains(t, buf.String(), "unlock failed: insufficient funds")
}

func TestWarnf(t *testing.T) {
	var buf bytes.Buffer
	WarnLogger = log.New(&buf, "WARN: ", 0)
	Warnf("provider slow: %dms", 1200)
	assert.Contains(t, buf.String(), "provider slow: 1200ms")
}
