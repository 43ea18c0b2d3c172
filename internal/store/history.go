package store

// MaxHistoryItems caps the history log. The cap is enforced on every
// persistence write, oldest entries dropped first.
const MaxHistoryItems = 1000

// History returns the completed-session log, oldest first. A missing
// or non-array record is treated as empty, never as an error.
func (s *Store) History() ([]HistoryEntry, error) {
	var entries []HistoryEntry
	ok, err := s.Get(RegionLocal, KeyHistory, &entries)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []HistoryEntry{}, nil
	}
	return entries, nil
}

// SaveHistory persists the log, trimmed to the newest MaxHistoryItems.
func (s *Store) SaveHistory(entries []HistoryEntry) error {
	return s.Set(RegionLocal, KeyHistory, CapHistory(entries))
}

// CapHistory drops the oldest entries beyond MaxHistoryItems.
func CapHistory(entries []HistoryEntry) []HistoryEntry {
	if len(entries) <= MaxHistoryItems {
		return entries
	}
	return entries[len(entries)-MaxHistoryItems:]
}
