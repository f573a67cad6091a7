package protocol

import (
	"fmt"
)

// MotorSettings is the brick's active motion profile. Values are replaced as a whole.
type MotorSettings struct {
	// Speed in percent of the motor's maximum.
	Speed    int `json:"speed"`
	PanelDeg int `json:"panel_deg"`
	RodDeg   int `json:"rod_deg"`
	TrapDeg  int `json:"trap_deg"`
}

// DefaultMotorSettings returns the profile a freshly started brick uses.
func DefaultMotorSettings() MotorSettings {
	return MotorSettings{
		Speed:    50,
		PanelDeg: 45,
		RodDeg:   40,
		TrapDeg:  95,
	}
}

func (s MotorSettings) Validate() error {
	if s.Speed < 0 || s.Speed > 100 {
		return fmt.Errorf("speed must be within [0,100], got %d", s.Speed)
	}
	if s.PanelDeg < 0 || s.RodDeg < 0 || s.TrapDeg < 0 {
		return fmt.Errorf("angles must not be negative: panel=%d rod=%d trap=%d", s.PanelDeg, s.RodDeg, s.TrapDeg)
	}
	return nil
}

// Merge applies p on top of s. Absent fields keep their value in s.
// The result is validated as a whole, so a bad field rejects the entire patch.
func (s MotorSettings) Merge(p SettingsPatch) (MotorSettings, error) {
	next := s
	if p.Speed != nil {
		next.Speed = *p.Speed
	}
	if p.PanelDeg != nil {
		next.PanelDeg = *p.PanelDeg
	}
	if p.RodDeg != nil {
		next.RodDeg = *p.RodDeg
	}
	if p.TrapDeg != nil {
		next.TrapDeg = *p.TrapDeg
	}
	if err := next.Validate(); err != nil {
		return s, err
	}
	return next, nil
}

// Patch returns a patch that sets every field to s.
func (s MotorSettings) Patch() *SettingsPatch {
	return &SettingsPatch{
		Speed:    &s.Speed,
		PanelDeg: &s.PanelDeg,
		RodDeg:   &s.RodDeg,
		TrapDeg:  &s.TrapDeg,
	}
}

// SettingsPatch is a partial MotorSettings as carried by a configure command.
type SettingsPatch struct {
	Speed    *int `json:"speed,omitempty"`
	PanelDeg *int `json:"panel_deg,omitempty"`
	RodDeg   *int `json:"rod_deg,omitempty"`
	TrapDeg  *int `json:"trap_deg,omitempty"`
}

// Validate checks the fields present in p on their own.
func (p SettingsPatch) Validate() error {
	if p.Speed != nil && (*p.Speed < 0 || *p.Speed > 100) {
		return fmt.Errorf("speed must be within [0,100], got %d", *p.Speed)
	}
	for name, v := range map[string]*int{"panel_deg": p.PanelDeg, "rod_deg": p.RodDeg, "trap_deg": p.TrapDeg} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, *v)
		}
	}
	return nil
}
