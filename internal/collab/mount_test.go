package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcMountsStatusUnmountedDeviceReportsNotMounted(t *testing.T) {
	info, err := ProcMounts{}.Status("/dev/definitely-not-a-real-device-xyz")
	require.NoError(t, err)
	assert.False(t, info.Mounted)
}
