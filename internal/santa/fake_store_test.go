package santa

import (
	"context"
	"fmt"
	"sort"
)

type fakeUser struct {
	externalID string
	status     Status
	tracking   string
}

// fakeStore is an in-memory Store. When fail is set every call returns it.
type fakeStore struct {
	users       map[int64]*fakeUser
	assignments map[string]Assignment
	fail        error
	writes      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[int64]*fakeUser{}, assignments: map[string]Assignment{}}
}

func (f *fakeStore) assign(giver, receiver string, p Preferences) {
	f.assignments[giver] = Assignment{GiverExternalID: giver, ReceiverExternalID: receiver, Preferences: p}
}

func (f *fakeStore) UserExists(_ context.Context, id int64) (bool, error) {
	if f.fail != nil {
		return false, f.fail
	}
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeStore) AddUser(_ context.Context, id int64) error {
	if f.fail != nil {
		return f.fail
	}
	if _, ok := f.users[id]; !ok {
		f.users[id] = &fakeUser{status: StatusPending}
		f.writes++
	}
	return nil
}

func (f *fakeStore) CompleteRegistration(_ context.Context, id int64, ext string) error {
	if f.fail != nil {
		return f.fail
	}
	u, ok := f.users[id]
	if !ok {
		u = &fakeUser{}
		f.users[id] = u
	}
	u.externalID, u.status = ext, StatusComplete
	f.writes++
	return nil
}

func (f *fakeStore) ExternalID(_ context.Context, id int64) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	if u, ok := f.users[id]; ok && u.externalID != "" {
		return u.externalID, nil
	}
	return "", fmt.Errorf("external id: %w", ErrNotFound)
}

func (f *fakeStore) Status(_ context.Context, id int64) (Status, error) {
	if f.fail != nil {
		return "", f.fail
	}
	if u, ok := f.users[id]; ok {
		return ParseStatus(string(u.status)), nil
	}
	return StatusPending, fmt.Errorf("status: %w", ErrNotFound)
}

func (f *fakeStore) SetTracking(_ context.Context, id int64, code string) error {
	if f.fail != nil {
		return f.fail
	}
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("set tracking: %w", ErrNotFound)
	}
	u.tracking = code
	f.writes++
	return nil
}

func (f *fakeStore) Tracking(_ context.Context, id int64) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	if u, ok := f.users[id]; ok && u.tracking != "" {
		return u.tracking, nil
	}
	return "", fmt.Errorf("tracking: %w", ErrNotFound)
}

func (f *fakeStore) IsAssigned(_ context.Context, ext string) (bool, error) {
	if f.fail != nil {
		return false, f.fail
	}
	_, ok := f.assignments[ext]
	return ok, nil
}

func (f *fakeStore) CounterpartExternalID(_ context.Context, giver string) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	if a, ok := f.assignments[giver]; ok {
		return a.ReceiverExternalID, nil
	}
	return "", fmt.Errorf("counterpart: %w", ErrNotFound)
}

func (f *fakeStore) GiverExternalID(_ context.Context, receiver string) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	var givers []string
	for g, a := range f.assignments {
		if a.ReceiverExternalID == receiver {
			givers = append(givers, g)
		}
	}
	if len(givers) == 0 {
		return "", fmt.Errorf("giver: %w", ErrNotFound)
	}
	sort.Strings(givers)
	return givers[0], nil
}

func (f *fakeStore) UserIDForExternalID(_ context.Context, ext string) (int64, error) {
	if f.fail != nil {
		return 0, f.fail
	}
	var best int64
	found := false
	for id, u := range f.users {
		if u.externalID == ext && (!found || id < best) {
			best, found = id, true
		}
	}
	if !found {
		return 0, fmt.Errorf("user for external id: %w", ErrNotFound)
	}
	return best, nil
}

func (f *fakeStore) PreferencesFor(_ context.Context, ext string) (Preferences, error) {
	if f.fail != nil {
		return Preferences{}, f.fail
	}
	if a, ok := f.assignments[ext]; ok {
		return a.Preferences, nil
	}
	return Preferences{}, fmt.Errorf("preferences: %w", ErrNotFound)
}
