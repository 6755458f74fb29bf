package app

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewSetsLogLevelFromFlags(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, New(false, false).Log.GetLevel())
	assert.Equal(t, logrus.ErrorLevel, New(false, true).Log.GetLevel())
	assert.Equal(t, logrus.DebugLevel, New(true, false).Log.GetLevel())
}

func TestNewVerboseWinsOverQuiet(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New(true, true).Log.GetLevel())
}
