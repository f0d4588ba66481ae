// Package googletasks implements storage.Store on top of the Google Tasks API.
//
// Values live in a dedicated task list. Each key is one task: the task title
// is the key and the task notes hold the value.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"todo/internal/config"
)

const (
	// MaxValueLen is the longest notes field the API accepts, in characters.
	MaxValueLen = 8192

	// PageSize is the number of items requested per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second
)

// ErrValueTooLarge is returned by Set when the value does not fit in a
// task's notes.
var ErrValueTooLarge = errors.New("value exceeds google tasks notes limit")

// Store implements storage.Store using a Google Tasks list.
type Store struct {
	svc       *tasks.Service
	listTitle string
	listID    string // resolved lazily
}

// New creates a store using the credentials in the config directory.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	httpClient, err := HTTPClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithHTTPClient(ctx, httpClient, cfg.TaskListTitle())
}

// NewWithHTTPClient creates a store with a custom HTTP client. Extra options
// (such as option.WithEndpoint) are passed to the API client.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, listTitle string, opts ...option.ClientOption) (*Store, error) {
	if listTitle == "" {
		return nil, errors.New("task list title required")
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Store{svc: svc, listTitle: listTitle}, nil
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	listID, err := s.resolveList(ctx, false)
	if err != nil {
		return "", false, err
	}
	if listID == "" {
		return "", false, nil
	}

	item, err := s.findTask(ctx, listID, key)
	if err != nil {
		return "", false, err
	}
	if item == nil {
		return "", false, nil
	}
	return item.Notes, true, nil
}

// Set implements storage.Store.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if n := utf8.RuneCountInString(value); n > MaxValueLen {
		return fmt.Errorf("%w: %d > %d characters", ErrValueTooLarge, n, MaxValueLen)
	}

	listID, err := s.resolveList(ctx, true)
	if err != nil {
		return err
	}

	item, err := s.findTask(ctx, listID, key)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if item == nil {
		_, err = s.svc.Tasks.Insert(listID, &tasks.Task{Title: key, Notes: value}).Context(ctx).Do()
	} else {
		_, err = s.svc.Tasks.Patch(listID, item.Id, &tasks.Task{
			Notes:           value,
			ForceSendFields: []string{"Notes"},
		}).Context(ctx).Do()
	}
	return wrapError(err)
}

// Close implements storage.Store.
func (s *Store) Close() error { return nil }

// resolveList finds the backing list by title, creating it if create is set.
// Returns "" when the list does not exist and create is false.
func (s *Store) resolveList(ctx context.Context, create bool) (string, error) {
	if s.listID != "" {
		return s.listID, nil
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var found []string
	err := s.svc.Tasklists.List().MaxResults(PageSize).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, list := range resp.Items {
			if list.Title == s.listTitle {
				found = append(found, list.Id)
			}
		}
		return nil
	})
	if err != nil {
		return "", wrapError(err)
	}

	switch len(found) {
	case 0:
	case 1:
		s.listID = found[0]
		return s.listID, nil
	default:
		return "", fmt.Errorf("ambiguous list name: %s", s.listTitle)
	}

	if !create {
		return "", nil
	}

	list, err := s.svc.Tasklists.Insert(&tasks.TaskList{Title: s.listTitle}).Context(ctx).Do()
	if err != nil {
		return "", wrapError(err)
	}
	s.listID = list.Id
	return s.listID, nil
}

// findTask returns the task titled key, or nil.
func (s *Store) findTask(ctx context.Context, listID, key string) (*tasks.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var match *tasks.Task
	err := s.svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, item := range resp.Items {
				if item.Title == key && match == nil {
					match = item
				}
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return match, nil
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("token expired or revoked (run: todo login)")
		case http.StatusNotFound:
			return fmt.Errorf("not found")
		}
	}

	return err
}
