package ratelimiter

import (
	"log/slog"
	"time"

	"github.com/holiman/uint256"

	"nttcore/core/events"
	"nttcore/core/nerrors"
	"nttcore/observability/logging"
	"nttcore/observability/metrics"
	"nttcore/storage"
)

// RateLimiter owns bucket and queued-transfer state for both the
// outbound and every inbound direction. The manager holds one instance
// and calls into it on every transfer attempt; it never touches bucket
// storage directly.
type RateLimiter struct {
	store   storage.Storage
	emitter events.Emitter
	now     func() time.Time
	logger  *slog.Logger
}

// New returns a RateLimiter with no storage bound. Callers must call
// SetState before use.
func New() *RateLimiter {
	return &RateLimiter{
		emitter: events.NoopEmitter{},
		now:     time.Now,
		logger:  slog.Default(),
	}
}

// SetState binds the backing key-value store.
func (r *RateLimiter) SetState(s storage.Storage) { r.store = s }

// SetEmitter overrides the event sink. The default is a no-op.
func (r *RateLimiter) SetEmitter(e events.Emitter) {
	if e == nil {
		e = events.NoopEmitter{}
	}
	r.emitter = e
}

// SetClock overrides the time source. Tests use this to advance time
// deterministically without sleeping.
func (r *RateLimiter) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	r.now = now
}

// SetLogger overrides the structured logger used for bucket lifecycle
// events. A nil logger falls back to slog.Default().
func (r *RateLimiter) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	r.logger = l
}

func (r *RateLimiter) nowUnix() uint64 { return uint64(r.now().Unix()) }

func (r *RateLimiter) loadBucket(id BucketID) (*Bucket, error) {
	var b Bucket
	ok, err := r.store.KVGet(bucketKey(id), &b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nerrors.ErrBucketUnknown
	}
	if b.RateLimit == nil {
		b.RateLimit = uint256.NewInt(0)
	}
	if b.Capacity == nil {
		b.Capacity = uint256.NewInt(0)
	}
	return &b, nil
}

func (r *RateLimiter) saveBucket(id BucketID, b *Bucket) error {
	return r.store.KVPut(bucketKey(id), b)
}

// AddBucket registers a brand new bucket. rateLimit of zero means
// unlimited: CurrentCapacity always reports the maximum uint256 value and
// Consume never fails.
func (r *RateLimiter) AddBucket(id BucketID, rateLimit *uint256.Int, rateDuration uint64) error {
	if _, err := r.loadBucket(id); err == nil {
		return nerrors.ErrBucketAlreadyExists
	} else if err != nerrors.ErrBucketUnknown {
		return err
	}
	if rateLimit == nil {
		rateLimit = uint256.NewInt(0)
	}
	b := &Bucket{
		RateLimit:    rateLimit,
		RateDuration: rateDuration,
		Capacity:     new(uint256.Int).Set(rateLimit),
		LastUpdated:  r.nowUnix(),
	}
	if err := r.saveBucket(id, b); err != nil {
		return err
	}
	r.logger.Info("bucket added", logging.MaskField("bucketId", id.Hex()), slog.String("rateLimit", rateLimit.Dec()))
	r.emitter.Emit(events.Wrap(events.NewBucketAddedEvent(id, rateLimit, b.LastUpdated)))
	return nil
}

// CurrentCapacity projects a bucket's stored capacity forward to now
// using the continuous linear refill formula, clamped to RateLimit.
//
//	capacity(t) = min(rateLimit, storedCapacity + rateLimit*elapsed/rateDuration)
func (r *RateLimiter) CurrentCapacity(id BucketID) (*uint256.Int, error) {
	b, err := r.loadBucket(id)
	if err != nil {
		return nil, err
	}
	return currentCapacity(b, r.nowUnix()), nil
}

func currentCapacity(b *Bucket, now uint64) *uint256.Int {
	if b.Unlimited() {
		return new(uint256.Int).Not(uint256.NewInt(0))
	}
	if b.RateDuration == 0 || now <= b.LastUpdated {
		return new(uint256.Int).Set(b.Capacity)
	}
	elapsed := now - b.LastUpdated
	refill := new(uint256.Int).Mul(b.RateLimit, uint256.NewInt(elapsed))
	refill.Div(refill, uint256.NewInt(b.RateDuration))
	projected := new(uint256.Int).Add(b.Capacity, refill)
	if projected.Gt(b.RateLimit) {
		return new(uint256.Int).Set(b.RateLimit)
	}
	return projected
}

// HasCapacity reports whether bucket id currently holds at least amount
// of capacity.
func (r *RateLimiter) HasCapacity(id BucketID, amount *uint256.Int) (bool, error) {
	cap, err := r.CurrentCapacity(id)
	if err != nil {
		return false, err
	}
	return cap.Cmp(amount) >= 0, nil
}

// Consume deducts amount from bucket id's current capacity, persisting
// the post-refill snapshot as of now. It fails with
// ErrInsufficientCapacity if the bucket, after refill, cannot cover
// amount.
func (r *RateLimiter) Consume(id BucketID, amount *uint256.Int) error {
	b, err := r.loadBucket(id)
	if err != nil {
		return err
	}
	if b.Unlimited() {
		b.LastUpdated = r.nowUnix()
		return r.saveBucket(id, b)
	}
	now := r.nowUnix()
	cap := currentCapacity(b, now)
	if cap.Cmp(amount) < 0 {
		return nerrors.ErrInsufficientCapacity
	}
	b.Capacity = new(uint256.Int).Sub(cap, amount)
	b.LastUpdated = now
	if err := r.saveBucket(id, b); err != nil {
		return err
	}
	metrics.RateLimiter().RecordConsume(directionOf(id))
	metrics.RateLimiter().SetCapacity(id.Hex(), float64(b.Capacity.Uint64()))
	r.emitter.Emit(events.Wrap(events.NewBucketConsumedEvent(id, amount)))
	return nil
}

// Fill credits bucket id with up to requested capacity, never exceeding
// RateLimit, and reports the amount actually credited. A bucket with a
// peer on the other side of a just-consumed transfer is filled this way
// so that capacity spent flowing one direction is made available in the
// other.
func (r *RateLimiter) Fill(id BucketID, requested *uint256.Int) (*uint256.Int, error) {
	b, err := r.loadBucket(id)
	if err != nil {
		return nil, err
	}
	if b.Unlimited() {
		return new(uint256.Int).Set(requested), nil
	}
	now := r.nowUnix()
	cap := currentCapacity(b, now)
	headroom := new(uint256.Int).Sub(b.RateLimit, cap)
	filled := requested
	if headroom.Cmp(requested) < 0 {
		filled = headroom
	}
	b.Capacity = new(uint256.Int).Add(cap, filled)
	b.LastUpdated = now
	if err := r.saveBucket(id, b); err != nil {
		return nil, err
	}
	metrics.RateLimiter().SetCapacity(id.Hex(), float64(b.Capacity.Uint64()))
	r.emitter.Emit(events.Wrap(events.NewBucketFilledEvent(id, requested, filled)))
	return new(uint256.Int).Set(filled), nil
}

// SetRateLimit updates bucket id's maximum capacity. The stored capacity
// is first refreshed to now so headroom computed afterwards reflects the
// old limit's refill up to this point; an unlimited bucket keeps its
// stored capacity instead. Raising the limit grants the
// bucket the full delta immediately, on top of whatever had already
// refilled; lowering it caps stored capacity at the new, smaller limit.
func (r *RateLimiter) SetRateLimit(id BucketID, newLimit *uint256.Int) error {
	b, err := r.loadBucket(id)
	if err != nil {
		return err
	}
	now := r.nowUnix()
	oldLimit := b.RateLimit
	if !b.Unlimited() {
		b.Capacity = currentCapacity(b, now)
	}
	b.LastUpdated = now
	b.RateLimit = new(uint256.Int).Set(newLimit)
	if newLimit.Gt(oldLimit) {
		delta := new(uint256.Int).Sub(newLimit, oldLimit)
		b.Capacity = new(uint256.Int).Add(b.Capacity, delta)
	} else if b.Capacity.Gt(b.RateLimit) {
		b.Capacity = new(uint256.Int).Set(b.RateLimit)
	}
	if err := r.saveBucket(id, b); err != nil {
		return err
	}
	r.logger.Info("rate limit updated",
		logging.MaskField("bucketId", id.Hex()),
		slog.String("oldLimit", oldLimit.Dec()),
		slog.String("newLimit", newLimit.Dec()),
	)
	r.emitter.Emit(events.Wrap(events.NewBucketRateLimitUpdatedEvent(id, newLimit)))
	return nil
}

// SetRateDuration updates the period over which bucket id refills from
// zero to RateLimit.
func (r *RateLimiter) SetRateDuration(id BucketID, newDuration uint64) error {
	b, err := r.loadBucket(id)
	if err != nil {
		return err
	}
	now := r.nowUnix()
	b.Capacity = currentCapacity(b, now)
	b.LastUpdated = now
	b.RateDuration = newDuration
	if err := r.saveBucket(id, b); err != nil {
		return err
	}
	r.emitter.Emit(events.Wrap(events.NewBucketRateDurationUpdatedEvent(id, newDuration)))
	return nil
}
