// Package task holds the task collection and the operations that change it.
package task

// DefaultKey is the storage key the collection is kept under.
const DefaultKey = "todos"

// DefaultRecentCount is the number of tasks shown as recent activity.
const DefaultRecentCount = 5

// Task represents a single to-do item.
type Task struct {
	ID        string
	Text      string
	Completed bool
}

// Stats are the aggregate counts derived from the collection.
type Stats struct {
	Total     int
	Completed int
	Pending   int
}

// Activity is one entry of the recent activity feed.
type Activity struct {
	ID        string
	Text      string
	Completed bool
}

// computeStats walks tasks once.
func computeStats(tasks []Task) Stats {
	var s Stats
	s.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}
