package datastores

import (
	"context"
	"errors"

	"github.com/oaiiae/contacts-directory/directory"
)

// ContactsStore keeps contacts by their login.uuid.
type ContactsStore interface {
	Create(context.Context, *directory.Contact) (string, error)
	List(context.Context) ([]*directory.Contact, error)
	Get(context.Context, string) (*directory.Contact, error)
	Delete(context.Context, string) (*directory.Contact, error)
}

var ErrObjectNotFound = errors.New("store: object not found")
