package livecache

import (
	"context"
	"errors"
	"fmt"
)

// Классы ошибок команды. Transport оборачивает свою ошибку одним из них, Execute
// дополняет неклассифицированные ошибки классом ErrTransport.
var (
	// ErrRejected: команда нарушает предусловие (локально или на сервере).
	ErrRejected = errors.New("command rejected")
	// ErrConflict: состояние матча изменилось параллельно, команду можно повторить после обновления.
	ErrConflict = errors.New("command conflicts with a concurrent change")
	ErrNotFound = errors.New("match not found")
	// ErrTransport: сервер недоступен или не ответил вовремя.
	ErrTransport = errors.New("transport failure")
)

func classified(err error) bool {
	return errors.Is(err, ErrRejected) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTransport)
}

func classify(err error) error {
	if err == nil || classified(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: command timed out: %w", ErrTransport, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
