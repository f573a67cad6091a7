package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"
)

func TestMergePartial(t *testing.T) {
	got, err := DefaultMotorSettings().Merge(SettingsPatch{Speed: ptr.To(70)})
	require.NoError(t, err)
	assert.Equal(t, MotorSettings{Speed: 70, PanelDeg: 45, RodDeg: 40, TrapDeg: 95}, got)

	// Prior values, not defaults, survive a second patch.
	got, err = got.Merge(SettingsPatch{TrapDeg: ptr.To(80)})
	require.NoError(t, err)
	assert.Equal(t, MotorSettings{Speed: 70, PanelDeg: 45, RodDeg: 40, TrapDeg: 80}, got)
}

func TestMergeRejectsWholePatch(t *testing.T) {
	prior := DefaultMotorSettings()
	got, err := prior.Merge(SettingsPatch{Speed: ptr.To(20), RodDeg: ptr.To(-5)})
	require.Error(t, err)
	assert.Equal(t, prior, got)
}

func TestEmptyPatchIsNoop(t *testing.T) {
	got, err := DefaultMotorSettings().Merge(SettingsPatch{})
	require.NoError(t, err)
	assert.Equal(t, DefaultMotorSettings(), got)
}
