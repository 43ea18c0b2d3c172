// Package export renders read-only views over the history log.
// Both formats include completed focus phases only.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"tomato/internal/stats"
	"tomato/internal/store"
)

// ToCSV writes the focus history as completedAt,phase,minutes,task.
func ToCSV(history []store.HistoryEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"completedAt", "phase", "minutes", "task"}); err != nil {
		return err
	}

	for _, e := range stats.FocusEntries(history) {
		row := []string{
			e.CompletedAt.UTC().Format(time.RFC3339),
			string(e.Phase),
			strconv.Itoa(e.Minutes),
			e.Task,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
