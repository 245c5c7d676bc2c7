package canonical

import "errors"

// ErrInvalidCategory marks an allocation request for a category outside the
// static table. Input error; never retried.
var ErrInvalidCategory = errors.New("unknown category")

// ErrAllocationUnavailable marks an allocation that could not verify
// freshness against the blob store. Transient; callers retry with backoff.
// The allocator fails closed rather than minting an unverified id.
var ErrAllocationUnavailable = errors.New("allocation unavailable")
