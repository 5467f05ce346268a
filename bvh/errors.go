package bvh

import "github.com/pkg/errors"

var (
	// Returned when the input coordinate list is empty or its length is
	// not a multiple of FloatsPerTriangle.
	ErrInvalidInput = errors.New("bvh: invalid input")

	// Returned when a mean split leaves one of the partitions empty. This
	// happens when every triangle in a subset shares the same center.
	ErrDegenerateSplit = errors.New("bvh: degenerate split")

	// Returned when a serialized node buffer cannot be decoded into a tree
	// or when a tree is too large to be encoded into one.
	ErrInvalidNodeBuffer = errors.New("bvh: invalid node buffer")

	// Returned by ParseTraversalMode for unknown mode names.
	ErrUnknownTraversalMode = errors.New("bvh: unknown traversal mode")
)
