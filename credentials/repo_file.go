package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

var _ Repo = (*FileRepo)(nil)

// FileRepo persists the pair as a flat JSON object on disk, the Go-side analog
// of the frontend's local-storage layout. Writes go through a temp file and
// rename so a crash never leaves a half-written credential file.
type FileRepo struct {
	path string
	keys Keys
	lock sync.Mutex
}

func NewFileRepo(path string, keys Keys) *FileRepo {
	return &FileRepo{path: path, keys: keys}
}

func (r *FileRepo) Get() (*Pair, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	values, err := r.read()
	if err != nil {
		return nil, err
	}

	pair := &Pair{
		AccessToken:       values[r.keys.Access],
		RefreshToken:      values[r.keys.Refresh],
		NotificationToken: values[r.keys.Notification],
	}
	if pair.AccessToken == "" && pair.RefreshToken == "" {
		return nil, NotLoggedInErr
	}
	return pair, nil
}

func (r *FileRepo) Upsert(pair *Pair) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	values := map[string]string{
		r.keys.Access:  pair.AccessToken,
		r.keys.Refresh: pair.RefreshToken,
	}
	if pair.NotificationToken != "" {
		values[r.keys.Notification] = pair.NotificationToken
	}
	return r.write(values)
}

func (r *FileRepo) Clear() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileRepo.Clear] remove")
	}
	return nil
}

func (r *FileRepo) read() (map[string]string, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, NotLoggedInErr
	}
	if err != nil {
		return nil, errors.Wrap(err, "[FileRepo.read] read file")
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrap(err, "[FileRepo.read] unmarshal")
	}
	return values, nil
}

func (r *FileRepo) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[FileRepo.write] marshal")
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "[FileRepo.write] mkdir")
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return errors.Wrap(err, "[FileRepo.write] create temp")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[FileRepo.write] write temp")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[FileRepo.write] chmod")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[FileRepo.write] close temp")
	}
	return errors.Wrap(os.Rename(tmpName, r.path), "[FileRepo.write] rename")
}
