//go:build linux

package hal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsort-io/binsort/internal/actuator"
)

func fakeMotor(t *testing.T, root, name, address string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for attr, v := range map[string]string{
		"address":       address,
		"max_speed":     "1000",
		"count_per_rot": "360",
		"state":         "",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, attr), []byte(v+"\n"), 0o644))
	}
	return dir
}

func TestSysfsDriver(t *testing.T) {
	root := t.TempDir()
	panel := fakeMotor(t, root, "motor0", "ev3-ports:outA")
	fakeMotor(t, root, "motor1", "ev3-ports:outB")
	fakeMotor(t, root, "motor2", "ev3-ports:outC")

	d, err := newPlatformDriver(root, actuator.DefaultPorts())
	require.NoError(t, err)

	require.NoError(t, d.RunForDegrees(context.Background(), "outA", 50, -45))

	read := func(attr string) string {
		v, err := readAttr(panel, attr)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "500", read("speed_sp"))
	assert.Equal(t, "-45", read("position_sp"))
	assert.Equal(t, "run-to-rel-pos", read("command"))

	require.NoError(t, d.Stop(context.Background(), "outA"))
	assert.Equal(t, "stop", read("command"))
}

func TestSysfsDriverStall(t *testing.T) {
	root := t.TempDir()
	trap := fakeMotor(t, root, "motor0", "outC")
	fakeMotor(t, root, "motor1", "outA")
	fakeMotor(t, root, "motor2", "outB")
	require.NoError(t, os.WriteFile(filepath.Join(trap, "state"), []byte("running stalled"), 0o644))

	d, err := newPlatformDriver(root, actuator.DefaultPorts())
	require.NoError(t, err)
	assert.ErrorIs(t, d.RunForDegrees(context.Background(), "outC", 50, 95), errStalled)
}

func TestSysfsDriverMissingPort(t *testing.T) {
	root := t.TempDir()
	fakeMotor(t, root, "motor0", "outA")

	_, err := newPlatformDriver(root, actuator.DefaultPorts())
	assert.Error(t, err)
}
