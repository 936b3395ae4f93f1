package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/davidjes1/fitnesstracker/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, GetLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, GetLevel("warning"))
	assert.Equal(t, logrus.TraceLevel, GetLevel("trace"))
	assert.Equal(t, logrus.InfoLevel, GetLevel("whatever"))
}

func TestOutput(t *testing.T) {
	assert.Equal(t, os.Stdout, Output("", true))

	path := filepath.Join(t.TempDir(), "tracker")
	w := Output(path, false)
	_, err := w.Write([]byte("hello\n"))
	require.NoError(t, err)
	content, err := os.ReadFile(path + ".log")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))

	combined, ok := Output(path, true).(*pkg.CombinedWriter)
	require.True(t, ok)
	assert.Len(t, combined.Writers, 2)
}

func TestSentryHook_Fire(t *testing.T) {
	var captured []*sentry.Event
	hook := NewSentryHook([]logrus.Level{logrus.ErrorLevel})
	hook.capture = func(event *sentry.Event) {
		captured = append(captured, event)
	}
	assert.Equal(t, []logrus.Level{logrus.ErrorLevel}, hook.Levels())

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.AddHook(hook)

	logger.WithField("user", "u-1").WithError(errors.New("disk full")).Error("save workouts")
	logger.Info("not forwarded")

	require.Len(t, captured, 1)
	assert.Equal(t, "save workouts", captured[0].Message)
	assert.Equal(t, sentry.LevelError, captured[0].Level)
	assert.Equal(t, "u-1", captured[0].Extra["user"])
	require.Len(t, captured[0].Exception, 1)
	assert.Equal(t, "disk full", captured[0].Exception[0].Value)
}
