package export

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"tomato/internal/stats"
	"tomato/internal/store"
)

type jsonExport struct {
	ExportDate     string               `json:"exportDate"`
	TotalPomodoros int                  `json:"totalPomodoros"`
	TotalMinutes   int                  `json:"totalMinutes"`
	History        []store.HistoryEntry `json:"history"`
}

// ToJSON writes the focus history with headline totals.
func ToJSON(history []store.HistoryEntry, path string) error {
	focus := stats.FocusEntries(history)
	if focus == nil {
		focus = []store.HistoryEntry{}
	}

	export := jsonExport{
		ExportDate:     time.Now().UTC().Format(time.RFC3339),
		TotalPomodoros: len(focus),
		TotalMinutes:   stats.TotalMinutes(history),
		History:        focus,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
