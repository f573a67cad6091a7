// Package registry persists the address of the last verified brick.
package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/binsort-io/binsort/pkg/log"
)

const (
	keyAddress = "EV3_ADDRESS"
	keyName    = "EV3_NAME"
)

// ErrNotFound means no address has been persisted yet.
var ErrNotFound = errors.New("no brick address recorded")

var macPattern = regexp.MustCompile(`^[0-9A-Fa-f]{2}(:[0-9A-Fa-f]{2}){5}$`)

// ValidMAC reports whether s looks like a Bluetooth device address, XX:XX:XX:XX:XX:XX.
func ValidMAC(s string) bool {
	return macPattern.MatchString(s)
}

// Record identifies a brick.
type Record struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

func (r Record) String() string {
	if r.Name == "" {
		return r.Address
	}
	return fmt.Sprintf("%s (%s)", r.Name, r.Address)
}

// Store reads and writes a Record as a KEY=value file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load returns the persisted record, or ErrNotFound when there is none.
func (s *Store) Load() (Record, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return Record{}, ErrNotFound
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return Record{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	r := Record{
		Address: v.GetString(keyAddress),
		Name:    v.GetString(keyName),
	}
	if r.Address == "" {
		return Record{}, ErrNotFound
	}
	return r, nil
}

// Save replaces the file with r. The write goes through a temporary file so readers
// never see a partial record.
func (s *Store) Save(r Record) error {
	if r.Address == "" {
		return errors.New("refusing to save an empty address")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s=%s\n", keyAddress, r.Address)
	if r.Name != "" {
		fmt.Fprintf(&buf, "%s=%s\n", keyName, quoteValue(r.Name))
	}
	fmt.Fprintf(&buf, "# Written by binsort after a verified connection on %s\n", time.Now().Format(time.RFC3339))

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// quoteValue renders s as a dotenv value that reads back unchanged. Single quotes are
// literal; a value holding one is double quoted with escapes instead.
func quoteValue(s string) string {
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`).Replace(s) + `"`
}

// Watch calls fn with the freshly loaded record every time the file is written, replaced
// or removed, until ctx is done. A removed file is reported as ErrNotFound.
func (s *Store) Watch(ctx context.Context, fn func(Record, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: Save replaces the file, which would drop a watch on the file itself.
	dir, err := filepath.Abs(filepath.Dir(s.path))
	if err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target, err := filepath.Abs(s.path)
	if err != nil {
		return err
	}

	logger := log.WithName("registry")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			r, err := s.Load()
			logger.Debug("Registry file changed", "op", ev.Op.String(), "address", r.Address)
			fn(r, err)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error(err, "Registry watcher error")
		}
	}
}
