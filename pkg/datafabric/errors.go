package datafabric

import (
	"errors"
	"fmt"

	"github.com/veracity/veracity-sdk-go/pkg/networking"
)

// Sentinel errors for the statuses the API documents. Anything the
// client does not recognise propagates as *networking.HTTPError with
// the response body and headers attached.
var (
	ErrContainerNotFound   = errors.New("container does not exist")
	ErrUserNotFound        = errors.New("user does not exist")
	ErrApplicationNotFound = errors.New("application does not exist")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotOwner            = errors.New("not the container owner")
	ErrNoAccess            = errors.New("no usable access grant")
	ErrMalformedRequest    = errors.New("malformed request")
)

// NoTemplateError means no key template grants the requested
// privileges.
type NoTemplateError struct {
	Privileges Privileges
}

func (e *NoTemplateError) Error() string {
	return fmt.Sprintf("cannot find key template with %s access privileges", e.Privileges)
}

// translate swaps recognised HTTP statuses on err for sentinel errors;
// everything else passes through untouched.
func translate(err error, statuses map[int]error) error {
	var httpErr *networking.HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}
	sentinel, ok := statuses[httpErr.StatusCode]
	if !ok {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
