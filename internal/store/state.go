package store

// DefaultTimerState returns a fresh idle focus state for the given
// configuration.
func DefaultTimerState(cfg Settings) TimerState {
	total := cfg.FocusMinutes * 60
	return TimerState{
		Phase:            PhaseFocus,
		TotalSeconds:     total,
		RemainingSeconds: total,
	}
}

// TimerState returns the persisted timer state, constructing defaults
// when the record is absent or malformed.
func (s *Store) TimerState(cfg Settings) (TimerState, error) {
	var ts TimerState
	ok, err := s.Get(RegionLocal, KeyTimerState, &ts)
	if err != nil {
		return DefaultTimerState(cfg), err
	}
	if !ok {
		return DefaultTimerState(cfg), nil
	}
	return ts, nil
}

// SaveTimerState overwrites the shared timer state. Last writer wins;
// there is no locking.
func (s *Store) SaveTimerState(ts TimerState) error {
	return s.Set(RegionLocal, KeyTimerState, ts)
}

// LastCompletion returns the most recent completion record, or nil if
// none is pending.
func (s *Store) LastCompletion() (*LastCompletion, error) {
	var lc LastCompletion
	ok, err := s.Get(RegionLocal, KeyLastCompletion, &lc)
	if err != nil || !ok {
		return nil, err
	}
	return &lc, nil
}

// ClearLastCompletion nulls the completion record; called whenever a
// new phase is explicitly started.
func (s *Store) ClearLastCompletion() error {
	return s.Set(RegionLocal, KeyLastCompletion, nil)
}
