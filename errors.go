package imagecache

import "github.com/jmgilman/go/errors"

func errInvalid(msg string) error {
	return errors.New(errors.CodeInvalidConfig, msg)
}
