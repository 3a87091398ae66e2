package outbox

import "fmt"

// statusError reports a non-2xx response from the analytics endpoint.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("analytics endpoint returned status %d", e.code)
}
