package profiles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"subvoice/internal/fileutil"
	"subvoice/internal/logging"
	"subvoice/internal/services"
)

const lockRetryDelay = 50 * time.Millisecond

// Style is the presentation metadata stored with a profile.
type Style struct {
	Avatar      string `json:"avatar"`
	DisplayName string `json:"display_name"`
	ColorTag    string `json:"color"`
}

// Profile is one enrolled speaker.
type Profile struct {
	Embedding json.RawMessage `json:"embedding"`
	Style     Style           `json:"style"`
}

// Entry pairs a profile with its key.
type Entry struct {
	Name string
	Profile
}

// Snapshot is an immutable view of the store at one point in time.
type Snapshot map[string]Profile

// Style implements the speaker style lookup.
func (s Snapshot) Style(name string) (Style, bool) {
	profile, ok := s[name]
	if !ok {
		return Style{}, false
	}
	return profile.Style, true
}

// Names returns the enrolled names in sorted order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns the profiles sorted by name.
func (s Snapshot) Entries() []Entry {
	entries := make([]Entry, 0, len(s))
	for _, name := range s.Names() {
		entries = append(entries, Entry{Name: name, Profile: s[name]})
	}
	return entries
}

// Enrolled returns the set of names, for label round-tripping.
func (s Snapshot) Enrolled() map[string]bool {
	set := make(map[string]bool, len(s))
	for name := range s {
		set[name] = true
	}
	return set
}

// Store is a file-backed profile store. It keeps no state in memory; every
// call reads the file.
type Store struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// NewStore returns a store backed by path. The file is created on first write.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewComponentLogger(logger, "profiles"),
	}
}

// Path returns the store file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the current mapping. A missing file is an empty store.
func (s *Store) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, nil
		}
		return nil, fmt.Errorf("read profile store: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Snapshot{}, nil
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parse profile store %s: %w", s.path, err)
	}
	if snapshot == nil {
		snapshot = Snapshot{}
	}
	return snapshot, nil
}

// Put inserts or overwrites the profile stored under name.
func (s *Store) Put(ctx context.Context, name string, profile Profile) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return services.Wrap(services.ErrValidation, services.StageEnroll, "store profile", "name required", nil)
	}
	if len(bytes.TrimSpace(profile.Embedding)) == 0 {
		return services.Wrap(services.ErrValidation, services.StageEnroll, "store profile", "embedding required", nil)
	}
	if profile.Style.DisplayName == "" {
		profile.Style.DisplayName = name
	}
	err := s.update(ctx, func(snapshot Snapshot) error {
		snapshot[name] = profile
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("speaker profile stored",
		logging.String(logging.FieldEventType, "profile_stored"),
		logging.String(logging.FieldSpeaker, name),
	)
	return nil
}

// Remove deletes the profile stored under name.
func (s *Store) Remove(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	err := s.update(ctx, func(snapshot Snapshot) error {
		if _, ok := snapshot[name]; !ok {
			return fmt.Errorf("profile %q: %w", name, services.ErrNotFound)
		}
		delete(snapshot, name)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("speaker profile removed",
		logging.String(logging.FieldEventType, "profile_removed"),
		logging.String(logging.FieldSpeaker, name),
	)
	return nil
}

func (s *Store) update(ctx context.Context, mutate func(Snapshot) error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create profile store directory: %w", err)
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock profile store: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock profile store: %s is held by another process", s.lock.Path())
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			logging.WarnWithContext(s.logger, "failed to release profile store lock", "profile_unlock_failed",
				logging.Error(err),
			)
		}
	}()

	snapshot, err := s.Load()
	if err != nil {
		return err
	}
	if err := mutate(snapshot); err != nil {
		return err
	}
	return s.save(snapshot)
}

func (s *Store) save(snapshot Snapshot) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(snapshot); err != nil {
		return fmt.Errorf("marshal profile store: %w", err)
	}

	if err := fileutil.WriteAtomic(s.path, buf.Bytes()); err != nil {
		return fmt.Errorf("write profile store: %w", err)
	}
	return nil
}
