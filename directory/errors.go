package directory

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingID is wrapped by a [RemoteCallError] when the server answers
// with a record that has no login.uuid.
var ErrMissingID = errors.New("record has no login.uuid")

// RemoteCallError is returned by every [Client] operation that fails,
// whether the request could not be sent, the server answered with a
// non-success status or the response could not be decoded.
type RemoteCallError struct {
	Op     string
	Method string
	URL    string
	Status int    // zero when no response was received
	Detail string // problem detail reported by the server, if any
	Err    error
}

func (e *RemoteCallError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "directory: %s: %s %s", e.Op, e.Method, e.URL)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RemoteCallError) Unwrap() error { return e.Err }
