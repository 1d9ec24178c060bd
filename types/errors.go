package types

import (
	"github.com/jmgilman/go/errors"
)

// CodeCacheMiss marks a tier that could not answer. It never leaves the pipeline.
const CodeCacheMiss errors.ErrorCode = "CACHE_MISS"

// ErrCacheMiss is returned by tiers that do not hold the key.
var ErrCacheMiss = errors.New(CodeCacheMiss, "cache miss")

// NotFound reports that the origin confirmed key does not exist.
func NotFound(key string, cause error) error {
	if cause == nil {
		return errors.WithContext(errors.New(errors.CodeNotFound, "image not found"), "key", key)
	}
	return errors.WithContext(errors.Wrap(cause, errors.CodeNotFound, "image not found"), "key", key)
}

// Unavailable reports that the origin could not be reached or gave no usable answer.
// The error is classified retryable; retrying is left to the caller.
func Unavailable(key string, cause error) error {
	var err errors.PlatformError
	if cause == nil {
		err = errors.New(errors.CodeUnavailable, "origin unavailable")
	} else {
		err = errors.Wrap(cause, errors.CodeUnavailable, "origin unavailable")
	}
	return errors.WithContext(
		errors.WithClassification(err, errors.ClassificationRetryable),
		"key", key,
	)
}

// MirrorIO wraps a local mirror read/write failure.
func MirrorIO(op, key string, cause error) error {
	return errors.WrapWithContext(cause, errors.CodeInternal, "mirror "+op+" failed", map[string]interface{}{
		"key": key,
		"op":  op,
	})
}

// IsCacheMiss reports whether err signals a tier miss.
func IsCacheMiss(err error) bool {
	return errors.GetCode(err) == CodeCacheMiss
}

// IsNotFound reports whether err is a terminal not-found outcome.
func IsNotFound(err error) bool {
	return errors.GetCode(err) == errors.CodeNotFound
}

// IsUnavailable reports whether err is a transport-level origin failure.
func IsUnavailable(err error) bool {
	switch errors.GetCode(err) {
	case errors.CodeUnavailable, errors.CodeNetwork, errors.CodeTimeout:
		return true
	}
	return false
}
