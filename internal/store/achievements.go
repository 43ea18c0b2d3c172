package store

// Achievements returns the unlock records keyed by achievement id.
func (s *Store) Achievements() (map[string]UnlockRecord, error) {
	var unlocked map[string]UnlockRecord
	ok, err := s.Get(RegionLocal, KeyAchievements, &unlocked)
	if err != nil {
		return nil, err
	}
	if !ok || unlocked == nil {
		return map[string]UnlockRecord{}, nil
	}
	return unlocked, nil
}

// SaveAchievements overwrites the unlock map. Callers must never drop
// or rewrite an existing record; unlocks are write-once.
func (s *Store) SaveAchievements(unlocked map[string]UnlockRecord) error {
	return s.Set(RegionLocal, KeyAchievements, unlocked)
}
