//go:build linux

package hal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/binsort-io/binsort/internal/actuator"
	"github.com/binsort-io/binsort/pkg/log"
)

const pollInterval = 20 * time.Millisecond

var errStalled = errors.New("motor stalled")

// tachoMotor is one ev3dev tacho-motor class device.
type tachoMotor struct {
	dir         string
	maxSpeed    int
	countPerRot int
}

// sysfsDriver drives LEGO motors through the ev3dev tacho-motor sysfs class.
type sysfsDriver struct {
	mu     sync.Mutex // guards command writes
	motors map[string]*tachoMotor
}

func newPlatformDriver(root string, ports actuator.Ports) (actuator.Driver, error) {
	entries, err := filepath.Glob(filepath.Join(root, "motor*"))
	if err != nil {
		return nil, err
	}

	byPort := map[string]string{}
	for _, dir := range entries {
		addr, err := readAttr(dir, "address")
		if err != nil {
			continue
		}
		// ev3dev reports e.g. "ev3-ports:outA"; keep the port name.
		if i := strings.LastIndexByte(addr, ':'); i >= 0 {
			addr = addr[i+1:]
		}
		byPort[addr] = dir
	}

	d := &sysfsDriver{motors: map[string]*tachoMotor{}}
	for _, port := range []string{ports.Panel, ports.Rods, ports.Trap} {
		dir, ok := byPort[port]
		if !ok {
			return nil, fmt.Errorf("no tacho motor on port %s under %s", port, root)
		}
		m := &tachoMotor{dir: dir, maxSpeed: 1050, countPerRot: 360}
		if v, err := readIntAttr(dir, "max_speed"); err == nil && v > 0 {
			m.maxSpeed = v
		}
		if v, err := readIntAttr(dir, "count_per_rot"); err == nil && v > 0 {
			m.countPerRot = v
		}
		d.motors[port] = m
		log.Info("Found tacho motor", "port", port, "dir", dir, "maxSpeed", m.maxSpeed)
	}
	return d, nil
}

func (d *sysfsDriver) RunForDegrees(ctx context.Context, port string, speed, degrees int) error {
	m, ok := d.motors[port]
	if !ok {
		return fmt.Errorf("unknown port %s", port)
	}

	d.mu.Lock()
	err := m.start(speed, degrees)
	d.mu.Unlock()
	if err != nil {
		return err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		state, err := readAttr(m.dir, "state")
		if err != nil {
			return err
		}
		if strings.Contains(state, "stalled") {
			_ = d.Stop(context.Background(), port)
			return errStalled
		}
		if !strings.Contains(state, "running") {
			return nil
		}

		select {
		case <-ctx.Done():
			_ = d.Stop(context.Background(), port)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *sysfsDriver) Stop(_ context.Context, port string) error {
	m, ok := d.motors[port]
	if !ok {
		return fmt.Errorf("unknown port %s", port)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return writeAttr(m.dir, "command", "stop")
}

func (m *tachoMotor) start(speed, degrees int) error {
	sp := speed * m.maxSpeed / 100
	pos := degrees * m.countPerRot / 360
	for _, kv := range [][2]string{
		{"stop_action", "brake"},
		{"speed_sp", strconv.Itoa(sp)},
		{"position_sp", strconv.Itoa(pos)},
		{"command", "run-to-rel-pos"},
	} {
		if err := writeAttr(m.dir, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

func readAttr(dir, name string) (string, error) {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func readIntAttr(dir, name string) (int, error) {
	s, err := readAttr(dir, name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func writeAttr(dir, name, value string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(value), 0o644)
}
