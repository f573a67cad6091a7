package setup

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsort-io/binsort/internal/brick"
	"github.com/binsort-io/binsort/internal/link"
	"github.com/binsort-io/binsort/internal/registry"
	"github.com/binsort-io/binsort/pkg/options"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func tcpLink(addr string) *options.LinkOptions {
	o := options.NewLinkOptions()
	o.Network = options.NetworkTCP
	o.Address = addr
	o.ConnectTimeout = 2 * time.Second
	o.ReadTimeout = 2 * time.Second
	o.WriteTimeout = 2 * time.Second
	return o
}

func startBrick(t *testing.T) string {
	t.Helper()
	addr := freeAddr(t)

	driver := options.NewDriverOptions()
	driver.Kind = options.DriverSimulated
	cfg := &brick.Config{
		LinkOptions:   tcpLink(addr),
		DriverOptions: driver,
		MotorOptions:  options.NewMotorOptions(),
		PacingOptions: &options.PacingOptions{},
		HttpOptions:   &options.HttpOptions{},
	}
	b, err := cfg.NewBrick()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return addr
}

type fixture struct {
	wizard *Wizard
	store  *registry.Store
	out    *bytes.Buffer
}

func newFixture(t *testing.T, devices []link.Device, input string) *fixture {
	t.Helper()

	lo := tcpLink("")
	ro := options.NewRegistryOptions()
	ro.Path = filepath.Join(t.TempDir(), "ev3_config.txt")

	out := &bytes.Buffer{}
	cfg := &Config{
		LinkOptions:      lo,
		RegistryOptions:  ro,
		DiscoveryOptions: options.NewDiscoveryOptions(),
		In:               strings.NewReader(input),
		Out:              out,
	}
	w := cfg.NewWizard()
	w.resolver.Scanner = link.StaticScanner(devices)
	w.resolver.Filters = []string{"ev3"}

	return &fixture{wizard: w, store: registry.NewStore(ro.Path), out: out}
}

func TestWizardSavesSingleBrick(t *testing.T) {
	addr := startBrick(t)
	f := newFixture(t, []link.Device{
		{Address: addr, Name: "EV3"},
		{Address: "127.0.0.1:1", Name: "headphones"},
	}, "")

	require.NoError(t, f.wizard.Run(context.Background()))

	rec, err := f.store.Load()
	require.NoError(t, err)
	assert.Equal(t, registry.Record{Address: addr, Name: "EV3"}, rec)
	assert.Contains(t, f.out.String(), "Brick answered ping")
}

func TestWizardPromptsAmongSeveral(t *testing.T) {
	addr := startBrick(t)
	f := newFixture(t, []link.Device{
		{Address: freeAddr(t), Name: "EV3 garage"},
		{Address: addr, Name: "EV3 kitchen"},
	}, "x\n9\n2\n")

	require.NoError(t, f.wizard.Run(context.Background()))

	rec, err := f.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "EV3 kitchen", rec.Name)
	assert.Equal(t, 2, strings.Count(f.out.String(), "Invalid choice"))
	assert.Contains(t, f.out.String(), "EV3 garage")
}

func TestWizardManualEntry(t *testing.T) {
	addr := startBrick(t)
	f := newFixture(t, nil, "not-an-address\n"+addr+"\n")

	require.NoError(t, f.wizard.Run(context.Background()))

	rec, err := f.store.Load()
	require.NoError(t, err)
	assert.Equal(t, addr, rec.Address)
	assert.Contains(t, f.out.String(), "No brick found.")
}

func TestWizardAbortsWithoutInput(t *testing.T) {
	for name, input := range map[string]string{
		"empty line":   "\n",
		"end of input": "",
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, nil, input)

			err := f.wizard.Run(context.Background())
			require.ErrorIs(t, err, ErrAborted)

			_, err = f.store.Load()
			assert.ErrorIs(t, err, registry.ErrNotFound)
		})
	}
}

func TestWizardDoesNotSaveUnverifiedBrick(t *testing.T) {
	f := newFixture(t, []link.Device{{Address: freeAddr(t), Name: "EV3"}}, "")

	err := f.wizard.Run(context.Background())
	require.Error(t, err)

	var connErr *link.ConnectionError
	assert.ErrorAs(t, err, &connErr)

	_, err = f.store.Load()
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestWizardUsesConfiguredAddress(t *testing.T) {
	addr := startBrick(t)
	f := newFixture(t, nil, "")
	f.wizard.link.Address = addr

	require.NoError(t, f.wizard.Run(context.Background()))

	rec, err := f.store.Load()
	require.NoError(t, err)
	assert.Equal(t, addr, rec.Address)
}

func TestValidAddress(t *testing.T) {
	w := &Wizard{link: options.NewLinkOptions()}
	assert.NoError(t, w.validAddress("00:16:53:4f:aa:01"))
	assert.Error(t, w.validAddress("00:16:53"))
	assert.Error(t, w.validAddress("127.0.0.1:9000"))

	w.link.Network = options.NetworkTCP
	assert.NoError(t, w.validAddress("127.0.0.1:9000"))
	assert.Error(t, w.validAddress("00:16:53:4f:aa:01"))
}

func TestPrompterLastLineWithoutNewline(t *testing.T) {
	p := newPrompter(strings.NewReader("1"), &bytes.Buffer{})
	d, err := p.Choose(context.Background(), []link.Device{{Address: "a", Name: "EV3"}})
	require.NoError(t, err)
	assert.Equal(t, "a", d.Address)
}
