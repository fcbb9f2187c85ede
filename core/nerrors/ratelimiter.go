package nerrors

import stderrors "errors"

var (
	// ErrBucketUnknown indicates the referenced bucket id was never added.
	ErrBucketUnknown = stderrors.New("ratelimiter: bucket unknown")
	// ErrInsufficientCapacity indicates a non-queuable outbound shortfall.
	ErrInsufficientCapacity = stderrors.New("ratelimiter: insufficient capacity")
	// ErrStillQueued indicates a deferred completion was attempted before
	// the queue entry's release time.
	ErrStillQueued = stderrors.New("ratelimiter: still queued")
	// ErrQueuedTransferUnknown indicates no queue entry exists for the
	// supplied key.
	ErrQueuedTransferUnknown = stderrors.New("ratelimiter: queued transfer unknown")
	// ErrBucketAlreadyExists indicates AddBucket was called twice for the
	// same bucket id.
	ErrBucketAlreadyExists = stderrors.New("ratelimiter: bucket already exists")
)
