package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaultsWithoutConfigFile(t *testing.T) {
	require.NoError(t, Init(t.TempDir()))
	require.NotNil(t, Conf)

	assert.Equal(t, "5050", Conf.Server.Port)

	assert.Equal(t, "logs", Conf.Logging.Directory)
	assert.Equal(t, 10, Conf.Logging.MaxSize)
	assert.Equal(t, 3, Conf.Logging.MaxBackups)
	assert.Equal(t, 7, Conf.Logging.MaxAge)
	assert.True(t, Conf.Logging.Compress)

	assert.Equal(t, 15.0, Conf.Detection.FPS)
	assert.Equal(t, 0.55, Conf.Detection.YawnRatio)
	assert.Equal(t, "skip", Conf.Detection.NoFacePolicy)

	assert.Equal(t, 100, Conf.Scoring.Baseline)
	assert.Equal(t, 7, Conf.Points.StreakInterval)
	assert.Equal(t, 12, Conf.Session.MaxOpenHours)
}

func TestInitEnvOverride(t *testing.T) {
	t.Setenv("FOCUSTRACK_SERVER_PORT", "9090")
	t.Setenv("FOCUSTRACK_DETECTION_NO_FACE_POLICY", "absent")

	require.NoError(t, Init(t.TempDir()))
	assert.Equal(t, "9090", Conf.Server.Port)
	assert.Equal(t, "absent", Conf.Detection.NoFacePolicy)
}
