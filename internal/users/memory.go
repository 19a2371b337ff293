package users

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wiseman-psychedelics/wiseman-api/internal/shared"
)

// MemoryDirectory keeps accounts in process memory. The email index is
// updated under the same lock as the insert, so uniqueness holds under
// concurrent registrations.
type MemoryDirectory struct {
	mu      sync.RWMutex
	nextID  int64
	byEmail map[string]*User
	now     func() time.Time
}

// NewMemoryDirectory returns an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		nextID:  1,
		byEmail: make(map[string]*User),
		now:     time.Now,
	}
}

// FindByEmail returns a copy of the stored account.
func (d *MemoryDirectory) FindByEmail(ctx context.Context, email string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("users: %w: %w", shared.ErrUnavailable, err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

// Insert stores u unless the email is taken.
func (d *MemoryDirectory) Insert(ctx context.Context, u User) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("users: %w: %w", shared.ErrUnavailable, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.byEmail[u.Email]; exists {
		return nil, shared.ErrDuplicateEmail
	}
	u.ID = d.nextID
	d.nextID++
	u.CreatedAt = d.now().UTC()
	stored := u
	d.byEmail[u.Email] = &stored
	return &u, nil
}

// ListSubscribed returns subscribers ordered by id.
func (d *MemoryDirectory) ListSubscribed(ctx context.Context) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("users: %w: %w", shared.ErrUnavailable, err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]User, 0)
	for _, u := range d.byEmail {
		if u.IsSubscribed {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetAdmin flips the admin flag for email. It mirrors the direct store
// mutation used to promote accounts.
func (d *MemoryDirectory) SetAdmin(email string, admin bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.byEmail[email]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsAdmin = admin
	now := d.now().UTC()
	u.UpdatedAt = &now
	return nil
}

var _ Directory = (*MemoryDirectory)(nil)
