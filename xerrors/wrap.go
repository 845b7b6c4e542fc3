package xerrors

import "github.com/pkg/errors"

// Wrap attaches a contextual message to a sentinel error kind while
// keeping it comparable with errors.Is(err, kind).
func Wrap(kind error, message string) error {
	return errors.Wrap(kind, message)
}

// Wrapf is Wrap with fmt.Sprintf-style formatting.
func Wrapf(kind error, format string, args ...interface{}) error {
	return errors.Wrapf(kind, format, args...)
}
