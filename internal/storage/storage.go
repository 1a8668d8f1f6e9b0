// Package storage persists the task store as a single key-value blob.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/BuzzLyutic/todo-app/internal/model"
)

// DefaultKey is the key the blob is stored under.
const DefaultKey = "todoAppData"

var (
	ErrAbsent  = errors.New("no saved data")
	ErrCorrupt = errors.New("saved data is corrupted")
)

// Gateway saves and loads the store state.
type Gateway interface {
	// Save replaces the stored blob with s.
	Save(ctx context.Context, s model.State) error

	// Load returns the stored state, ErrAbsent when nothing is stored or
	// ErrCorrupt when the blob cannot be decoded.
	Load(ctx context.Context) (model.State, error)

	// Clear removes the stored blob. Clearing an absent blob is not an error.
	Clear(ctx context.Context) error

	Close() error
}

// PersistenceError wraps any failure of a gateway operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var perr *PersistenceError
	if errors.As(err, &perr) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
