// Package settings persists where the overlay sits and whether it is locked.
// The file keeps the INI layout of earlier releases:
//
//	[SETTINGS]
//	x = 1100
//	y = 20
//	draggable = 1
package settings

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/ini.v1"

	"github.com/prabalesh/netoverlay/internal/models"
)

const section = "SETTINGS"

// DefaultPosition is used whenever the file is missing or malformed.
var DefaultPosition = models.OverlayPosition{X: 1100, Y: 20, Locked: false}

type PositionStore struct {
	path string
	log  *zap.Logger
}

func NewPositionStore(path string, log *zap.Logger) *PositionStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &PositionStore{path: path, log: log.Named("settings")}
}

func (s *PositionStore) Path() string { return s.path }

// Load never fails: any problem yields DefaultPosition.
func (s *PositionStore) Load() models.OverlayPosition {
	pos, err := s.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Debug("no saved position", zap.String("path", s.path))
		} else {
			s.log.Warn("saved position unreadable, using default", zap.String("path", s.path), zap.Error(err))
		}
		return DefaultPosition
	}
	return pos
}

func (s *PositionStore) read() (models.OverlayPosition, error) {
	if _, err := os.Stat(s.path); err != nil {
		return models.OverlayPosition{}, err
	}
	file, err := ini.Load(s.path)
	if err != nil {
		return models.OverlayPosition{}, err
	}
	if !file.HasSection(section) {
		return models.OverlayPosition{}, fmt.Errorf("missing [%s] section", section)
	}
	sec := file.Section(section)

	x, err := intKey(sec, "x")
	if err != nil {
		return models.OverlayPosition{}, err
	}
	y, err := intKey(sec, "y")
	if err != nil {
		return models.OverlayPosition{}, err
	}
	draggable, err := intKey(sec, "draggable")
	if err != nil {
		return models.OverlayPosition{}, err
	}
	return models.OverlayPosition{X: x, Y: y, Locked: draggable == 0}, nil
}

func intKey(sec *ini.Section, name string) (int, error) {
	if !sec.HasKey(name) {
		return 0, fmt.Errorf("missing key %q", name)
	}
	v, err := sec.Key(name).Int()
	if err != nil {
		return 0, fmt.Errorf("key %q: %w", name, err)
	}
	return v, nil
}

// Save rewrites the file with pos.
func (s *PositionStore) Save(pos models.OverlayPosition) error {
	file := ini.Empty()
	sec, err := file.NewSection(section)
	if err != nil {
		return err
	}
	draggable := 1
	if pos.Locked {
		draggable = 0
	}
	keys := []struct {
		name  string
		value int
	}{{"x", pos.X}, {"y", pos.Y}, {"draggable", draggable}}
	for _, k := range keys {
		if _, err := sec.NewKey(k.name, strconv.Itoa(k.value)); err != nil {
			return err
		}
	}
	if err := file.SaveTo(s.path); err != nil {
		return fmt.Errorf("save position to %s: %w", s.path, err)
	}
	return nil
}
