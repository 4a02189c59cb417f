package datastores

import (
	"github.com/google/uuid"
)

// newContactID returns a fresh login.uuid in the canonical text form.
func newContactID() string { return uuid.Must(uuid.NewV7()).String() }

// validContactID reports whether id can be used as a login.uuid as is.
func validContactID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
