package webhook

import (
	"errors"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a webhook id is not registered.
	ErrNotFound = errors.New("webhook not found")
	// ErrInvalidURL is returned for anything that is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("url must be an absolute http or https URL")
	// ErrInvalidMinAccounts is returned for a negative account threshold.
	ErrInvalidMinAccounts = errors.New("min_accounts must not be negative")
)

// Hook is one registered webhook endpoint. It fires when a regenerated report
// lists at least MinAccounts accounts.
type Hook struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	MinAccounts int       `json:"min_accounts"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Registry is a thread-safe in-memory set of hooks. It is not persisted;
// hooks supplied through configuration are re-registered on every start.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string]*Hook
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string]*Hook)}
}

// Register validates and stores a new active hook.
func (r *Registry) Register(rawURL string, minAccounts int) (Hook, error) {
	if err := validateURL(rawURL); err != nil {
		return Hook{}, err
	}
	if minAccounts < 0 {
		return Hook{}, ErrInvalidMinAccounts
	}

	h := &Hook{
		ID:          uuid.NewString(),
		URL:         rawURL,
		MinAccounts: minAccounts,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[h.ID] = h
	return *h, nil
}

// Delete removes a hook by id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hooks[id]; !ok {
		return ErrNotFound
	}
	delete(r.hooks, id)
	return nil
}

// List returns every hook, oldest first.
func (r *Registry) List() []Hook {
	return r.collect(func(*Hook) bool { return true })
}

// Active returns the hooks that are currently enabled, oldest first.
func (r *Registry) Active() []Hook {
	return r.collect(func(h *Hook) bool { return h.Active })
}

func (r *Registry) collect(keep func(*Hook) bool) []Hook {
	r.mu.RLock()
	out := make([]Hook, 0, len(r.hooks))
	for _, h := range r.hooks {
		if keep(h) {
			out = append(out, *h)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}
	return nil
}
