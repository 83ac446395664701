package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/palma21/hotel-rating-fetcher/internal/models"
	"github.com/palma21/hotel-rating-fetcher/internal/storage"
	"github.com/sirupsen/logrus"
)

const settingsFile = "settings.json"

// Supported modes
const (
	ModeOff = "off"
	ModeOn  = "on"
)

// ErrInvalidMode is returned when a mode other than ModeOff or ModeOn is set
var ErrInvalidMode = errors.New("mode must be 'off' or 'on'")

// Store persists the popup settings as a single JSON blob
type Store struct {
	storage storage.StorageInterface
	mu      sync.Mutex
}

// NewStore creates a settings store on top of storage
func NewStore(storage storage.StorageInterface) *Store {
	return &Store{storage: storage}
}

// Defaults matches what the extension writes on install
func Defaults() models.Settings {
	return models.Settings{APIKey: "", Mode: ModeOff}
}

// Get returns the saved settings, or the defaults when nothing is saved yet
func (s *Store) Get() (models.Settings, error) {
	data, err := s.storage.Retrieve(settingsFile)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Defaults(), nil
		}
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	settings := Defaults()
	if err := json.Unmarshal(data, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if settings.Mode == "" {
		settings.Mode = ModeOff
	}
	return settings, nil
}

// Set replaces the saved settings
func (s *Store) Set(settings models.Settings) error {
	settings.APIKey = strings.TrimSpace(settings.APIKey)
	if settings.Mode != ModeOff && settings.Mode != ModeOn {
		return ErrInvalidMode
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := s.storage.Store(settingsFile, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	logrus.Infof("Settings saved (mode=%s, api key set=%t)", settings.Mode, settings.APIKey != "")
	return nil
}

// SetAPIKey updates only the API key
func (s *Store) SetAPIKey(apiKey string) error {
	return s.update(func(settings *models.Settings) { settings.APIKey = apiKey })
}

// SetMode updates only the mode
func (s *Store) SetMode(mode string) error {
	return s.update(func(settings *models.Settings) { settings.Mode = mode })
}

func (s *Store) update(change func(*models.Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.Get()
	if err != nil {
		return err
	}
	change(&settings)
	return s.Set(settings)
}

// MaskKey hides all but the last four characters of a key
func MaskKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 4 {
		return strings.Repeat("*", len(apiKey))
	}
	return strings.Repeat("*", len(apiKey)-4) + apiKey[len(apiKey)-4:]
}
