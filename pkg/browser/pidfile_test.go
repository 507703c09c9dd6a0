package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDFileRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	pid, err := ReadPIDFile()
	require.NoError(t, err)
	assert.Equal(t, 0, pid, "no recorded pid reads as zero")

	require.NoError(t, WritePIDFile(12345))
	pid, err = ReadPIDFile()
	require.NoError(t, err)
	assert.Equal(t, 12345, pid)

	require.NoError(t, ClearPIDFile())
	pid, err = ReadPIDFile()
	require.NoError(t, err)
	assert.Equal(t, 0, pid)

	// Clearing twice is fine.
	require.NoError(t, ClearPIDFile())
}
