package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"todo/internal/task"
)

var (
	// ErrTaskRefRequired indicates no task reference was provided.
	ErrTaskRefRequired = errors.New("task reference required")

	// ErrTaskNotFound indicates a reference matched no task.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAmbiguousRef indicates an id prefix matched more than one task.
	ErrAmbiguousRef = errors.New("ambiguous task reference")
)

// ResolveTaskRef finds the task a reference points at.
//
// Resolution order:
//  1. A full task id.
//  2. All digits within 1..len(tasks) → position as printed by `todo list`.
//  3. A unique id prefix.
func ResolveTaskRef(tasks []task.Task, ref string) (task.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return task.Task{}, ErrTaskRefRequired
	}

	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
	}

	if isAllDigits(ref) {
		if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(tasks) {
			return tasks[n-1], nil
		}
	}

	var matches []task.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return task.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return task.Task{}, fmt.Errorf("%w: %s matches %d tasks", ErrAmbiguousRef, ref, len(matches))
	}
}

// ResolveTaskRefs resolves every reference against the same collection, so
// positions refer to the list as it was printed. Duplicates are collapsed.
func ResolveTaskRefs(tasks []task.Task, refs []string) ([]task.Task, error) {
	if len(refs) == 0 {
		return nil, ErrTaskRefRequired
	}
	seen := make(map[string]bool, len(refs))
	var out []task.Task
	for _, ref := range refs {
		t, err := ResolveTaskRef(tasks, ref)
		if err != nil {
			return nil, err
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
