package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	keySymbol   = "symbol"
	keyHideInfo = "hide_info"
)

// Preferences are the user choices that survive a restart.
type Preferences struct {
	Symbol   string `mapstructure:"symbol" json:"symbol"`
	HideInfo bool   `mapstructure:"hide_info" json:"hide_info"`
}

// Store keeps Preferences in a JSON file. Every setter writes the file
// before returning.
type Store struct {
	mu     sync.Mutex
	path   string
	v      *viper.Viper
	logger *zap.Logger
}

// Open reads the file at path. A missing or unreadable file yields the
// defaults; the file is only created on the first write.
func Open(path string, logger *zap.Logger) *Store {
	s := &Store{path: path, logger: logger}

	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no preferences file, using defaults", zap.String("path", path))
		} else {
			logger.Warn("ignoring unreadable preferences file", zap.String("path", path), zap.Error(err))
		}
		v = newViper(path)
	}
	s.v = v
	return s
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault(keySymbol, "")
	v.SetDefault(keyHideInfo, false)
	return v
}

// Get returns the current preferences.
func (s *Store) Get() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p Preferences
	if err := s.v.Unmarshal(&p); err != nil {
		// a hand-edited file can hold the wrong types
		s.logger.Warn("invalid preferences, using defaults", zap.Error(err))
		return Preferences{}
	}
	return p
}

func (s *Store) SetSymbol(symbol string) error {
	return s.set(keySymbol, symbol)
}

func (s *Store) SetHideInfo(hide bool) error {
	return s.set(keyHideInfo, hide)
}

func (s *Store) set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, value)
	if err := s.v.WriteConfigAs(s.path); err != nil {
		s.logger.Error("failed to save preferences", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
