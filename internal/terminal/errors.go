package terminal

import (
	"errors"
	"fmt"

	"github.com/Platitedengi/idistr-mvp/internal/gateway"
)

var (
	ErrIdentityMissing  = errors.New("operator identity missing")
	ErrOperatorNotFound = errors.New("operator not found")
	ErrLoadFailed       = errors.New("failed to load session data")
	ErrUnknownStore     = errors.New("store is not assigned to this operator")
	ErrUnknownProduct   = errors.New("product is not in the catalog")
)

// classifyRepError maps a rep lookup failure: a 4xx answer means the operator
// is not provisioned, anything else is a load failure.
func classifyRepError(err error) error {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.ClientError() {
		return fmt.Errorf("%w: %w", ErrOperatorNotFound, err)
	}
	return fmt.Errorf("%w: %w", ErrLoadFailed, err)
}
