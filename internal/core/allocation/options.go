package allocation

import (
	"time"

	"github.com/google/uuid"
)

type options struct {
	window   int
	selector LotSelector
	now      func() time.Time
	newID    func() string
}

type Option func(*options)

// WithMovingAverageWindow sets how many recently consumed lot prices the
// MOVING_AVERAGE running price spans. Values below 1 keep the default.
func WithMovingAverageWindow(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.window = n
		}
	}
}

func WithLotSelector(sel LotSelector) Option {
	return func(o *options) {
		if sel != nil {
			o.selector = sel
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		window:   DefaultMovingAverageWindow,
		selector: DesignatedOrFirstSufficient,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
