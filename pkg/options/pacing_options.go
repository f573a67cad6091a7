package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*PacingOptions)(nil)

// PacingOptions models physical actuation time. None of it goes over the wire.
type PacingOptions struct {
	Settle         time.Duration `json:"settle" mapstructure:"settle"`
	CompostHold    time.Duration `json:"compost-hold" mapstructure:"compost-hold"`
	RecyclableHold time.Duration `json:"recyclable-hold" mapstructure:"recyclable-hold"`
	TrashHold      time.Duration `json:"trash-hold" mapstructure:"trash-hold"`
}

func NewPacingOptions() *PacingOptions {
	return &PacingOptions{
		Settle:         200 * time.Millisecond,
		CompostHold:    3 * time.Second,
		RecyclableHold: 2 * time.Second,
		TrashHold:      1 * time.Second,
	}
}

func (o *PacingOptions) Validate() []error {
	if o == nil {
		return nil
	}
	if o.Settle < 0 || o.CompostHold < 0 || o.RecyclableHold < 0 || o.TrashHold < 0 {
		return []error{errors.New("--pacing durations must not be negative")}
	}
	return nil
}

func (o *PacingOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.Settle, join(prefixes, "pacing.settle"), o.Settle, "Delay after each primitive move.")
	fs.DurationVar(&o.CompostHold, join(prefixes, "pacing.compost-hold"), o.CompostHold, "How long the panel holds left for compost.")
	fs.DurationVar(&o.RecyclableHold, join(prefixes, "pacing.recyclable-hold"), o.RecyclableHold, "How long the panel holds right for recyclables.")
	fs.DurationVar(&o.TrashHold, join(prefixes, "pacing.trash-hold"), o.TrashHold, "How long the trap stays open for trash.")
}
