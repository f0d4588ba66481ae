package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// snapshotEntry is the persisted shape of a task. The text lives under
// "todo" so existing snapshots keep loading.
type snapshotEntry struct {
	ID        json.RawMessage `json:"id"`
	Text      string          `json:"todo"`
	Completed bool            `json:"completed"`
}

type encodedEntry struct {
	ID        string `json:"id"`
	Text      string `json:"todo"`
	Completed bool   `json:"completed"`
}

// Encode serializes tasks, in order, into a snapshot string.
func Encode(tasks []Task) (string, error) {
	entries := make([]encodedEntry, len(tasks))
	for i, t := range tasks {
		entries[i] = encodedEntry{ID: t.ID, Text: t.Text, Completed: t.Completed}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(data), nil
}

// Decode parses a snapshot. An empty or "null" snapshot decodes to an empty
// collection. Malformed JSON is an error; Load treats it as no prior data.
// Entries with an empty text or a repeated id are skipped and returned as
// dropped.
func Decode(snapshot string) (tasks []Task, dropped int, err error) {
	trimmed := strings.TrimSpace(snapshot)
	if trimmed == "" || trimmed == "null" {
		return nil, 0, nil
	}

	var entries []snapshotEntry
	if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
		return nil, 0, fmt.Errorf("decode snapshot: %w", err)
	}

	seen := make(map[string]bool, len(entries))
	tasks = make([]Task, 0, len(entries))
	for _, e := range entries {
		id, ok := decodeID(e.ID)
		text := strings.TrimSpace(e.Text)
		if !ok || text == "" || seen[id] {
			dropped++
			continue
		}
		seen[id] = true
		tasks = append(tasks, Task{ID: id, Text: text, Completed: e.Completed})
	}
	return tasks, dropped, nil
}

// decodeID accepts a JSON string or a JSON number. Older snapshots used
// millisecond timestamps as ids.
func decodeID(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || n == "" {
		return "", false
	}
	return n.String(), true
}
