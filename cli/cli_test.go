package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerOptions(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(
		WithOutput(&buf),
		WithLevel(logrus.DebugLevel),
		WithFormatter(&logrus.JSONFormatter{}),
	)

	logger.Debug("tuned")
	assert.Contains(t, buf.String(), `"msg":"tuned"`)
}

func TestGetLoggerHonorsFlags(t *testing.T) {
	cmd := NewStandardCommand("butler", "test")
	require.NoError(t, cmd.PersistentFlags().Set("verbose", "true"))
	require.NoError(t, cmd.PersistentFlags().Set("json", "true"))

	logger := GetLogger(cmd)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestGetLoggerDefaults(t *testing.T) {
	logger := GetLogger(NewStandardCommand("butler", "test"))
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestVersionCommandOutput(t *testing.T) {
	info := VersionInfo{
		Version:   "1.2.3",
		Commit:    "abc123",
		BuildDate: "2026-01-02",
		BuildArch: "linux/amd64",
	}
	cmd := NewVersionCommand("butler", info)

	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "butler 1.2.3\n"))
	assert.Contains(t, text, "Commit:    abc123")
	assert.Contains(t, text, "Arch:      linux/amd64")
}
