// Package state holds the contact directory state and the store that
// updates it from the lifecycle events of remote operations.
package state

import (
	"github.com/oaiiae/contacts-directory/directory"
)

// Directory is a snapshot of the directory state. Values are shared
// between snapshots and must be treated as read-only.
type Directory struct {
	Items             []directory.Contact
	OpenedContact     *directory.Contact
	APICallInProgress bool

	// InFlight counts tasks that started and have not settled yet.
	InFlight int
}

func APICallInProgress(d Directory) bool { return d.APICallInProgress }

func Items(d Directory) []directory.Contact { return d.Items }

// OpenedContact returns the last contact fetched by identifier, if any.
func OpenedContact(d Directory) (directory.Contact, bool) {
	if d.OpenedContact == nil {
		return directory.Contact{}, false
	}
	return *d.OpenedContact, true
}
