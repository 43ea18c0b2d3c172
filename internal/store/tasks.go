package store

import "time"

// Tasks returns the task list. A missing or malformed record is
// treated as empty.
func (s *Store) Tasks() ([]Task, error) {
	var tasks []Task
	ok, err := s.Get(RegionLocal, KeyTasks, &tasks)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Task{}, nil
	}
	return tasks, nil
}

// SaveTasks overwrites the task list.
func (s *Store) SaveTasks(tasks []Task) error {
	return s.Set(RegionLocal, KeyTasks, tasks)
}

// NewTask builds a task with generated id and creation time.
func NewTask(title, description, category, priority string, estimatedMinutes *int, now time.Time) Task {
	if category == "" {
		category = "other"
	}
	if priority == "" {
		priority = "medium"
	}
	return Task{
		ID:               now.UnixMilli(),
		Title:            title,
		Description:      description,
		Category:         category,
		Priority:         priority,
		EstimatedMinutes: estimatedMinutes,
		CreatedAt:        now,
	}
}

// FindTask returns the index of the task with the given id, or -1.
func FindTask(tasks []Task, id int64) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
