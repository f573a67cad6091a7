//go:build linux

package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBDAddrRoundTrip(t *testing.T) {
	bd, err := parseBDAddr("00:16:53:4f:aa:01")
	require.NoError(t, err)
	assert.Equal(t, [6]uint8{0x01, 0xaa, 0x4f, 0x53, 0x16, 0x00}, bd)
	assert.Equal(t, "00:16:53:4F:AA:01", formatBDAddr(bd))

	_, err = parseBDAddr("00:16:53")
	assert.Error(t, err)
}
