package cpu

import "github.com/pkg/errors"

var (
	ErrNoSceneData      = errors.New("cpu tracer: no scene data uploaded")
	ErrNoCameraData     = errors.New("cpu tracer: no camera data uploaded")
	ErrNotInitialized   = errors.New("cpu tracer: tracer not initialized")
	ErrBlockOutOfBounds = errors.New("cpu tracer: block exceeds frame bounds")
)
