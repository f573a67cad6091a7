// Package sorting maps classifier labels onto bins and describes how each bin is served.
package sorting

import (
	"fmt"
	"sort"
	"time"
)

// Category is a destination bin.
type Category string

const (
	Compost    Category = "compost"
	Recyclable Category = "recyclable"
	Trash      Category = "trash"
)

var labels = map[string]Category{
	"battery":         Trash,
	"glass":           Trash,
	"metal":           Recyclable,
	"organic_waste":   Compost,
	"paper_cardboard": Recyclable,
	"plastic":         Recyclable,
	"textiles":        Trash,
	"trash":           Trash,
}

// UnknownLabelError is returned for labels outside the classifier's vocabulary.
type UnknownLabelError struct {
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("Unknown label: %s", e.Label)
}

// CategoryOf maps a classifier label to its bin.
func CategoryOf(label string) (Category, error) {
	c, ok := labels[label]
	if !ok {
		return "", &UnknownLabelError{Label: label}
	}
	return c, nil
}

// Labels returns the known labels in sorted order.
func Labels() []string {
	out := make([]string, 0, len(labels))
	for l := range labels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Step is one primitive move of a sort sequence.
type Step string

const (
	PanelLeft   Step = "panel_left"
	PanelRight  Step = "panel_right"
	PanelCenter Step = "panel_center"
	TrapOpen    Step = "trap_open"
	TrapClose   Step = "trap_close"
)

// Plan is the fixed sequence for one category: Move, wait Hold, then Return.
type Plan struct {
	Category Category
	Move     Step
	Return   Step
	Hold     time.Duration
}

// Holds are the per-category dwell times.
type Holds struct {
	Compost    time.Duration
	Recyclable time.Duration
	Trash      time.Duration
}

// DefaultHolds returns the dwell times the mechanism was tuned with.
func DefaultHolds() Holds {
	return Holds{
		Compost:    3 * time.Second,
		Recyclable: 2 * time.Second,
		Trash:      1 * time.Second,
	}
}

// PlanFor returns the sequence serving c.
func (h Holds) PlanFor(c Category) (Plan, error) {
	switch c {
	case Compost:
		return Plan{Category: c, Move: PanelLeft, Return: PanelCenter, Hold: h.Compost}, nil
	case Recyclable:
		return Plan{Category: c, Move: PanelRight, Return: PanelCenter, Hold: h.Recyclable}, nil
	case Trash:
		return Plan{Category: c, Move: TrapOpen, Return: TrapClose, Hold: h.Trash}, nil
	}
	return Plan{}, fmt.Errorf("no plan for category %q", c)
}
