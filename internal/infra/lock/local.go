package lock

import (
	"context"
	"sync"
)

// LocalLocker блокировка в пределах одного процесса (Redis выключен)
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker создает блокировщик в памяти процесса
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) TryAcquire(_ context.Context, name string) (ReleaseFunc, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[name]; busy {
		return nil, false, nil
	}
	l.held[name] = struct{}{}

	var once sync.Once
	release := func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, name)
			l.mu.Unlock()
		})
		return nil
	}

	return release, true, nil
}
