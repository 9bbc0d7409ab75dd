package credentials

import "sync"

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo keeps the pair in process memory. Used by tests and by callers
// that manage persistence themselves.
type InMemoryRepo struct {
	lock sync.RWMutex
	pair *Pair
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{}
}

func (r *InMemoryRepo) Get() (*Pair, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.pair == nil || (r.pair.AccessToken == "" && r.pair.RefreshToken == "") {
		return nil, NotLoggedInErr
	}
	copied := *r.pair
	return &copied, nil
}

func (r *InMemoryRepo) Upsert(pair *Pair) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	copied := *pair
	r.pair = &copied
	return nil
}

func (r *InMemoryRepo) Clear() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.pair = nil
	return nil
}
