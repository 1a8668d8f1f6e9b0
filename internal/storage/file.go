package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BuzzLyutic/todo-app/internal/model"
)

// FileGateway keeps the blob in a single JSON file.
type FileGateway struct {
	path string
	now  func() time.Time
}

func NewFileGateway(path string) *FileGateway {
	return &FileGateway{path: path, now: time.Now}
}

func (g *FileGateway) Path() string { return g.path }

func (g *FileGateway) Save(ctx context.Context, s model.State) error {
	if err := ctx.Err(); err != nil {
		return wrap("save", err)
	}
	data, err := Encode(s)
	if err != nil {
		return wrap("save", err)
	}

	dir := filepath.Dir(g.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return wrap("save", err)
	}

	// Запись через временный файл, чтобы не оставить обрезанный blob
	tmp, err := os.CreateTemp(dir, filepath.Base(g.path)+".*.tmp")
	if err != nil {
		return wrap("save", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return wrap("save", err)
	}
	if err := tmp.Close(); err != nil {
		return wrap("save", err)
	}
	if err := os.Rename(tmp.Name(), g.path); err != nil {
		return wrap("save", fmt.Errorf("replace %s: %w", g.path, err))
	}
	return nil
}

func (g *FileGateway) Load(ctx context.Context) (model.State, error) {
	if err := ctx.Err(); err != nil {
		return model.State{}, wrap("load", err)
	}
	data, err := os.ReadFile(g.path)
	if errors.Is(err, os.ErrNotExist) {
		return model.State{}, wrap("load", ErrAbsent)
	}
	if err != nil {
		return model.State{}, wrap("load", err)
	}
	s, err := Decode(data, g.now())
	return s, wrap("load", err)
}

func (g *FileGateway) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return wrap("clear", err)
	}
	if err := os.Remove(g.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return wrap("clear", err)
	}
	return nil
}

func (g *FileGateway) Close() error { return nil }
