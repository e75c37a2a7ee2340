package clock

import "time"

// Clock abstracts wall-clock time so services can be tested against a fixed
// instant. Expiry decisions depend on it everywhere.
type Clock interface {
	Now() time.Time
}

// NewSystem returns a clock backed by time.Now in UTC.
func NewSystem() Clock {
	return system{}
}

type system struct{}

func (system) Now() time.Time { return time.Now().UTC() }

// NewFixed returns a clock pinned to t, for deterministic tests.
func NewFixed(t time.Time) Clock {
	return fixed{at: t.UTC()}
}

type fixed struct {
	at time.Time
}

func (f fixed) Now() time.Time { return f.at }
