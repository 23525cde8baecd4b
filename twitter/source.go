package twitter

import (
	"context"

	"github.com/pkg/errors"
)

// Profile is the identity of a remote account. The numeric id is the stable
// identifier; the screen name can change upstream.
type Profile struct {
	ID       int64
	Username string
}

// Tweet is a single remote timeline item.
type Tweet struct {
	ID   int64
	Text string
}

// Source is the narrow contract the rest of the system consumes Twitter
// through. GetTimeline returns original tweets only (no replies, no
// retweets), newest first, restricted to ids strictly greater than sinceID
// when sinceID is non-nil.
type Source interface {
	GetUser(ctx context.Context, username string) (*Profile, error)
	GetTimeline(ctx context.Context, userID int64, sinceID *int64, limit int) ([]Tweet, error)
}

var (
	// ErrNotFound indicates the requested account does not exist remotely.
	ErrNotFound = errors.New("twitter: user not found")
	// ErrRateLimited indicates the remote service throttled us. Transient,
	// surfaced to the caller for a retry decision, never retried here.
	ErrRateLimited = errors.New("twitter: rate limited")
	// ErrUnavailable indicates a transient remote failure.
	ErrUnavailable = errors.New("twitter: service unavailable")
)
