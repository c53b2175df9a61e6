package rng

import "go.uber.org/zap"

// loggedSource wraps a Source and logs every draw at debug level, so an
// outcome dispute (mission failed, training injury) can be traced back to
// the value that decided it.
type loggedSource struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedSource returns a Source that delegates to src and logs each draw.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger) Source {
	return &loggedSource{src: src, logger: logger}
}

func (l *loggedSource) Intn(n int) int {
	v := l.src.Intn(n)
	l.logger.Debug("rng draw", zap.Int("n", n), zap.Int("value", v))
	return v
}

func (l *loggedSource) Float64() float64 {
	v := l.src.Float64()
	l.logger.Debug("rng draw", zap.Float64("value", v))
	return v
}
