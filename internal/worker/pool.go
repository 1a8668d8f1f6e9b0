package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Saver - то, что умеет сохранять изменившееся состояние
type Saver interface {
	SaveIfDirty(ctx context.Context) (bool, error)
}

// Autosave периодически сохраняет хранилище задач, если оно менялось
type Autosave struct {
	saver    Saver
	logger   *zap.Logger
	interval time.Duration
	wg       sync.WaitGroup
	stop     chan struct{}
	once     sync.Once
}

func NewAutosave(saver Saver, logger *zap.Logger, interval time.Duration) *Autosave {
	return &Autosave{
		saver:    saver,
		logger:   logger,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (a *Autosave) Start(ctx context.Context) {
	if a.interval <= 0 {
		a.logger.Info("Autosave disabled")
		return
	}
	a.logger.Info("Starting autosave", zap.Duration("interval", a.interval))

	a.wg.Add(1)
	go a.run(ctx)
}

// Stop останавливает цикл и делает последнее сохранение.
// При выключенном автосохранении данные сохраняются только явно.
func (a *Autosave) Stop(ctx context.Context) error {
	a.once.Do(func() { close(a.stop) })
	a.wg.Wait()
	if a.interval <= 0 {
		return nil
	}

	saved, err := a.saver.SaveIfDirty(ctx)
	if err != nil {
		a.logger.Error("final save failed", zap.Error(err))
		return err
	}
	a.logger.Info("Autosave stopped", zap.Bool("final_save", saved))
	return nil
}

func (a *Autosave) run(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *Autosave) tick(ctx context.Context) {
	saved, err := a.saver.SaveIfDirty(ctx)
	if err != nil {
		// Ошибка не фатальна, попробуем на следующем тике
		a.logger.Error("autosave error", zap.Error(err))
		return
	}
	if saved {
		a.logger.Debug("autosave done")
	}
}
