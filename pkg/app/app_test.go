package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/binsort-io/binsort/pkg/log"
	"github.com/binsort-io/binsort/pkg/options"
)

type testOptions struct {
	Link *options.LinkOptions `json:"link" mapstructure:"link"`
	Log  *log.Options         `json:"log" mapstructure:"log"`

	completed bool
	invalid   bool
}

func (o *testOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.Link.AddFlags(fss.FlagSet("link"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error {
	if o.invalid {
		return errors.New("invalid")
	}
	return nil
}

func (o *testOptions) LogOptions() *log.Options { return o.Log }

func newTestOptions() *testOptions {
	return &testOptions{Link: options.NewLinkOptions(), Log: log.NewOptions()}
}

func TestAppAppliesFlagsFileAndEnv(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "host.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("link:\n  network: tcp\n  read-timeout: 3s\n"), 0o600))
	t.Setenv("BINSORT_TEST_LINK_ADDRESS", "127.0.0.1:7000")

	opts := newTestOptions()
	ran := false
	a := NewApp("binsort-test", "test", WithOptions(opts), WithDefaultValidArgs(), WithRunFunc(func() error {
		ran = true
		return nil
	}))

	a.Command().SetArgs([]string{"--config", cfgFile, "--link.connect-timeout", "7s"})
	require.NoError(t, a.Command().Execute())

	assert.True(t, ran)
	assert.True(t, opts.completed)
	assert.Equal(t, options.NetworkTCP, opts.Link.Network)
	assert.Equal(t, "127.0.0.1:7000", opts.Link.Address)
	assert.Equal(t, 3*time.Second, opts.Link.ReadTimeout)
	assert.Equal(t, 7*time.Second, opts.Link.ConnectTimeout)
	assert.Equal(t, 15*time.Second, opts.Link.WriteTimeout)
}

func TestAppRejectsArgsAndInvalidOptions(t *testing.T) {
	opts := newTestOptions()
	a := NewApp("binsort-test", "test", WithOptions(opts), WithDefaultValidArgs(), WithRunFunc(func() error { return nil }))
	a.Command().SetArgs([]string{"extra"})
	assert.Error(t, a.Command().Execute())

	opts = newTestOptions()
	opts.invalid = true
	a = NewApp("binsort-test", "test", WithOptions(opts), WithRunFunc(func() error { return nil }))
	a.Command().SetArgs([]string{})
	assert.EqualError(t, a.Command().Execute(), "invalid")
}

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "BINSORT_HOST", envPrefix("binsort-host"))
}

func TestConfigFlagRegistered(t *testing.T) {
	a := NewApp("binsort-test", "test", WithOptions(newTestOptions()))
	found := a.Command().Flags().Lookup("config")
	require.NotNil(t, found)
	assert.Equal(t, "c", found.Shorthand)
}
