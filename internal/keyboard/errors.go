package keyboard

import (
	"errors"
	"fmt"

	"github.com/PixPMusic/gopher-keys/internal/layout"
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

var (
	// ErrUnknownOption is matched by UnknownOptionError
	ErrUnknownOption = errors.New("unknown option")
	// ErrInvalidOption is matched by InvalidOptionError
	ErrInvalidOption = errors.New("invalid option value")
	// ErrInvalidLayout is matched by InvalidLayoutError
	ErrInvalidLayout = layout.ErrInvalidLayout
	// ErrDestroyed is returned by a controller after Destroy until it is reconfigured
	ErrDestroyed = errors.New("keyboard destroyed")

	errNoOptions = errors.New("no options given")
)

// InvalidLayoutError reports an octave count or start note no layout can be built from
type InvalidLayoutError = layout.InvalidLayoutError

// UnknownOptionError is returned by Get and Set for keys outside the allow-list
type UnknownOptionError struct {
	Key string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("unknown option %q", e.Key)
}

func (e *UnknownOptionError) Is(target error) bool {
	return target == ErrUnknownOption
}

// InvalidOptionError is returned when an option value has the wrong type or range
type InvalidOptionError struct {
	Key   string
	Value any
	Err   error
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid value for option %q: %v", e.Key, e.Err)
}

func (e *InvalidOptionError) Unwrap() error {
	return e.Err
}

func (e *InvalidOptionError) Is(target error) bool {
	return target == ErrInvalidOption
}

func unknownOption(key string) error {
	return fault.Wrap(&UnknownOptionError{Key: key},
		fmsg.WithDesc("unknown keyboard option",
			fmt.Sprintf("%q is not a keyboard option. Known options: %v", key, OptionKeys())),
		ftag.With(ftag.NotFound),
	)
}

func invalidConfig(err error) error {
	return fault.Wrap(err,
		fmsg.WithDesc("invalid keyboard configuration", err.Error()),
		ftag.With(ftag.InvalidArgument),
	)
}

func destroyed() error {
	return fault.Wrap(ErrDestroyed, ftag.With("destroyed"))
}
