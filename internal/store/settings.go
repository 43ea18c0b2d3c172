package store

import (
	"github.com/goccy/go-json"

	"tomato/internal/debug"
)

// DefaultSettings returns the compiled-in configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		FocusMinutes:        25,
		ShortBreakMinutes:   5,
		LongBreakMinutes:    15,
		LongBreakInterval:   4,
		AutoStartNext:       false,
		NotificationEnabled: true,
		SoundEnabled:        true,
		OpenAlarmPage:       true,
		Theme:               "light",
	}
}

// ResolveSettings shallow-merges defaults <- synced <- local, local
// winning. Unmarshalling onto the accumulated struct only overwrites
// fields present in the raw record, so absent input is equivalent to
// empty. No validation happens here; values are clamped at edit time.
func ResolveSettings(local, synced json.RawMessage) Settings {
	s := DefaultSettings()
	if len(synced) > 0 {
		if err := json.Unmarshal(synced, &s); err != nil {
			s = DefaultSettings()
			debug.Errorf("resolve synced settings", err)
		}
	}
	merged := s
	if len(local) > 0 {
		if err := json.Unmarshal(local, &merged); err != nil {
			merged = s
			debug.Errorf("resolve local settings", err)
		}
	}
	return merged
}

// Settings reads both regions and returns the effective configuration.
func (s *Store) Settings() (Settings, error) {
	local, err := s.GetRaw(RegionLocal, KeySettings)
	if err != nil {
		return DefaultSettings(), err
	}
	synced, err := s.GetRaw(RegionSync, KeySettings)
	if err != nil {
		return DefaultSettings(), err
	}
	return ResolveSettings(local, synced), nil
}

// SaveSettings persists the full record locally and mirrors it to the
// sync region for cross-device defaults.
func (s *Store) SaveSettings(cfg Settings) error {
	if err := s.Set(RegionLocal, KeySettings, cfg); err != nil {
		return err
	}
	return s.Set(RegionSync, KeySettings, cfg)
}

// Locale returns the persisted language code, or "" when unset.
func (s *Store) Locale() string {
	var locale string
	ok, err := s.Get(RegionLocal, KeyLocale, &locale)
	if err != nil {
		debug.Errorf("read locale", err)
	}
	if !ok {
		return ""
	}
	return locale
}

// SetLocale persists the selected language code.
func (s *Store) SetLocale(locale string) error {
	return s.Set(RegionLocal, KeyLocale, locale)
}
