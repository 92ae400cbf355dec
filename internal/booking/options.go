package booking

import (
	"context"
	"time"
)

// Transactor открывает транзакцию или присоединяется к уже открытой в ctx.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type settings struct {
	now func() time.Time
}

func defaultSettings() settings {
	return settings{now: time.Now}
}

type Option func(*settings)

// WithClock подменяет источник текущего времени (тесты).
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
