package storage

import (
	"context"
	"sync"
	"time"

	"github.com/BuzzLyutic/todo-app/internal/model"
)

// MemoryGateway keeps encoded blobs in a map. Data lives as long as the process.
type MemoryGateway struct {
	mu  sync.RWMutex
	m   map[string][]byte
	key string
	now func() time.Time
}

func NewMemoryGateway(key string) *MemoryGateway {
	if key == "" {
		key = DefaultKey
	}
	return &MemoryGateway{m: make(map[string][]byte), key: key, now: time.Now}
}

// Put stores raw bytes under the gateway key, bypassing encoding.
func (g *MemoryGateway) Put(data []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.m[g.key] = append([]byte(nil), data...)
}

func (g *MemoryGateway) Save(ctx context.Context, s model.State) error {
	if err := ctx.Err(); err != nil {
		return wrap("save", err)
	}
	data, err := Encode(s)
	if err != nil {
		return wrap("save", err)
	}
	g.Put(data)
	return nil
}

func (g *MemoryGateway) Load(ctx context.Context) (model.State, error) {
	if err := ctx.Err(); err != nil {
		return model.State{}, wrap("load", err)
	}
	g.mu.RLock()
	data, ok := g.m[g.key]
	g.mu.RUnlock()
	if !ok {
		return model.State{}, wrap("load", ErrAbsent)
	}
	s, err := Decode(data, g.now())
	return s, wrap("load", err)
}

func (g *MemoryGateway) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return wrap("clear", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.m, g.key)
	return nil
}

func (g *MemoryGateway) Close() error { return nil }
