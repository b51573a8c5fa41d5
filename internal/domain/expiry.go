package domain

import "time"

// ExpiryState is the state of a handle as observed by a single read.
type ExpiryState int

const (
	Live ExpiryState = iota + 1
	Expired
)

func (s ExpiryState) String() string {
	switch s {
	case Live:
		return "live"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// CheckExpiry decides whether rec may still be served at now.
// A record is expired as soon as now reaches ExpiresAt; the transition is one-way.
func CheckExpiry(rec *FileRecord, now time.Time) ExpiryState {
	if now.Before(rec.ExpiresAt) {
		return Live
	}
	return Expired
}

// Remaining is the time left before rec expires, never negative.
func Remaining(rec *FileRecord, now time.Time) time.Duration {
	if d := rec.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
