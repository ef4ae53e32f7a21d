package lapcast

import (
	"github.com/pkg/errors"
)

var (
	// ErrDataUnavailable means no usable lap exists for a driver. The
	// session skips the driver.
	ErrDataUnavailable = errors.New("driver data unavailable")
	// ErrNonFinite marks a sample holding NaN or infinite values. The
	// affected fields are sent as 0.
	ErrNonFinite = errors.New("sample has non-finite values")
	// ErrTransportSetup means the bus or socket could not be opened and
	// nothing can be streamed.
	ErrTransportSetup = errors.New("unable to set up transport")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrSessionUsed    = errors.New("session already run")
)
