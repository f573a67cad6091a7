package link

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/binsort-io/binsort/internal/registry"
	"github.com/binsort-io/binsort/pkg/options"
)

// Device is a nearby peer seen by a Scanner.
type Device struct {
	Address string
	Name    string
}

// Scanner lists nearby devices.
type Scanner interface {
	Scan(ctx context.Context) ([]Device, error)
}

// Chooser picks one of several candidate bricks.
type Chooser interface {
	Choose(ctx context.Context, candidates []Device) (Device, error)
}

// Resolver turns a scan into exactly one brick.
type Resolver struct {
	Scanner Scanner

	// Filters are case-insensitive name substrings; any match makes a candidate.
	Filters []string

	// Chooser disambiguates several candidates. Without one, several is an error.
	Chooser Chooser
}

// NewResolver builds a Resolver scanning with bluetoothctl as configured by o.
func NewResolver(o *options.DiscoveryOptions, chooser Chooser) *Resolver {
	return &Resolver{
		Scanner: &BluetoothctlScanner{Path: o.Bluetoothctl, Timeout: o.ScanTimeout},
		Filters: o.NameFilters,
		Chooser: chooser,
	}
}

// Candidates scans and keeps the devices whose name matches a filter, once per address.
func (r *Resolver) Candidates(ctx context.Context) ([]Device, error) {
	devices, err := r.Scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []Device
	for _, d := range devices {
		key := strings.ToUpper(d.Address)
		if seen[key] || !r.matches(d.Name) {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out, nil
}

func (r *Resolver) matches(name string) bool {
	name = strings.ToLower(name)
	for _, f := range r.Filters {
		if f != "" && strings.Contains(name, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// Resolve returns the single matching brick, asking the Chooser when there are several.
func (r *Resolver) Resolve(ctx context.Context) (registry.Record, error) {
	candidates, err := r.Candidates(ctx)
	if err != nil {
		return registry.Record{}, &DiscoveryError{Err: err}
	}

	switch len(candidates) {
	case 0:
		return registry.Record{}, &DiscoveryError{Err: ErrNoDevice}
	case 1:
		d := candidates[0]
		return registry.Record{Address: d.Address, Name: d.Name}, nil
	}

	if r.Chooser == nil {
		return registry.Record{}, &DiscoveryError{Found: len(candidates), Err: ErrAmbiguous}
	}
	d, err := r.Chooser.Choose(ctx, candidates)
	if err != nil {
		return registry.Record{}, &DiscoveryError{Found: len(candidates), Err: fmt.Errorf("%w: %w", ErrAmbiguous, err)}
	}
	return registry.Record{Address: d.Address, Name: d.Name}, nil
}

// StaticScanner reports a fixed device list.
type StaticScanner []Device

func (s StaticScanner) Scan(context.Context) ([]Device, error) {
	return append([]Device(nil), s...), nil
}

// BluetoothctlScanner scans with the BlueZ command line client.
type BluetoothctlScanner struct {
	Path    string
	Timeout time.Duration
}

func (s *BluetoothctlScanner) Scan(ctx context.Context) ([]Device, error) {
	path := s.Path
	if path == "" {
		path = "bluetoothctl"
	}
	secs := int(s.Timeout / time.Second)
	if secs < 1 {
		secs = 1
	}

	// bluetoothctl exits on its own after --timeout; the scan result is cached by bluetoothd.
	scanCtx, cancel := context.WithTimeout(ctx, s.Timeout+5*time.Second)
	defer cancel()
	if out, err := exec.CommandContext(scanCtx, path, "--timeout", strconv.Itoa(secs), "scan", "on").CombinedOutput(); err != nil {
		return nil, fmt.Errorf("bluetoothctl scan: %w: %s", err, bytes.TrimSpace(out))
	}

	listCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(listCtx, path, "devices").Output()
	if err != nil {
		return nil, fmt.Errorf("bluetoothctl devices: %w", err)
	}
	return parseDevices(out), nil
}

// parseDevices reads "Device <address> <name...>" lines.
func parseDevices(out []byte) []Device {
	var devices []Device
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		for i, f := range fields {
			if f != "Device" || i+1 >= len(fields) || !registry.ValidMAC(fields[i+1]) {
				continue
			}
			devices = append(devices, Device{
				Address: fields[i+1],
				Name:    strings.Join(fields[i+2:], " "),
			})
			break
		}
	}
	return devices
}
