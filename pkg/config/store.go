package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/fbsbot/pkg/booking"
	"github.com/entrhq/fbsbot/pkg/credentials"
)

// ErrUnauthorized is returned when a chat user is not on the allow-list.
var ErrUnauthorized = errors.New("user is not authorized")

// User is one allow-list entry. Password may be plain or sealed.
type User struct {
	TelegramID int64  `yaml:"telegram_id" json:"telegram_id"`
	Username   string `yaml:"utownfbs_username" json:"utownfbs_username"`
	Password   string `yaml:"utownfbs_password" json:"utownfbs_password"`
}

type usersFile struct {
	Users []User `yaml:"users" json:"users"`
}

// UserStore is the users allow-list backed by a JSON or YAML file.
// Lookups use passwords opened at load time; the file keeps them as written.
type UserStore struct {
	path     string
	sealer   *credentials.Sealer
	users    map[int64]User
	creds    map[int64]booking.Credentials
	mu       sync.RWMutex
	modified bool
}

// NewUserStore creates a store for path and loads it. A missing file yields
// an empty allow-list. sealer may be nil when no password is sealed.
func NewUserStore(path string, sealer *credentials.Sealer) (*UserStore, error) {
	store := &UserStore{
		path:   path,
		sealer: sealer,
		users:  make(map[int64]User),
		creds:  make(map[int64]booking.Credentials),
	}

	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load users from %s: %w", path, err)
	}
	return store, nil
}

// Load reads the users file from disk.
func (s *UserStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.users = make(map[int64]User)
			s.creds = make(map[int64]booking.Credentials)
			return nil
		}
		return fmt.Errorf("failed to open users file: %w", err)
	}

	// JSON is a subset of YAML, so one decoder reads both formats
	var file usersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to decode users file: %w", err)
	}

	users := make(map[int64]User, len(file.Users))
	creds := make(map[int64]booking.Credentials, len(file.Users))
	for _, u := range file.Users {
		c, err := s.open(u)
		if err != nil {
			return err
		}
		users[u.TelegramID] = u
		creds[u.TelegramID] = c
	}

	s.users = users
	s.creds = creds
	s.modified = false
	return nil
}

func (s *UserStore) open(u User) (booking.Credentials, error) {
	if u.TelegramID == 0 {
		return booking.Credentials{}, fmt.Errorf("user %q: telegram_id is required", u.Username)
	}
	if u.Username == "" {
		return booking.Credentials{}, fmt.Errorf("user %d: utownfbs_username is required", u.TelegramID)
	}
	password, err := s.sealer.Open(u.Password)
	if err != nil {
		return booking.Credentials{}, fmt.Errorf("user %d: %w", u.TelegramID, err)
	}
	return booking.Credentials{Username: u.Username, Password: password}, nil
}

// Save writes the users file atomically. Files ending in .yaml or .yml are
// written as YAML, anything else as indented JSON.
func (s *UserStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create users directory: %w", err)
	}

	file := usersFile{Users: s.sorted()}
	var data []byte
	var err error
	switch filepath.Ext(s.path) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(file)
	default:
		data, err = json.MarshalIndent(file, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode users: %w", err)
	}

	// Create temp file for atomic write
	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp users file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.modified = false
	return nil
}

// Lookup returns the portal credentials of a chat user.
func (s *UserStore) Lookup(telegramID int64) (booking.Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[telegramID]
	return c, ok
}

// Credentials is Lookup with an error for unknown users.
func (s *UserStore) Credentials(telegramID int64) (booking.Credentials, error) {
	c, ok := s.Lookup(telegramID)
	if !ok {
		return booking.Credentials{}, fmt.Errorf("%w: %d", ErrUnauthorized, telegramID)
	}
	return c, nil
}

// Put adds or replaces a user.
func (s *UserStore) Put(u User) error {
	c, err := s.open(u)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.TelegramID] = u
	s.creds[u.TelegramID] = c
	s.modified = true
	return nil
}

// Remove deletes a user and reports whether it existed.
func (s *UserStore) Remove(telegramID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[telegramID]; !ok {
		return false
	}
	delete(s.users, telegramID)
	delete(s.creds, telegramID)
	s.modified = true
	return true
}

// Users returns the entries as stored, ordered by telegram id.
func (s *UserStore) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted()
}

func (s *UserStore) sorted() []User {
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out
}

// IsModified returns true if the store has unsaved changes.
func (s *UserStore) IsModified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// Path returns the file path of the store.
func (s *UserStore) Path() string {
	return s.path
}
