package datastores

import (
	"context"
	"slices"
	"sync"

	"github.com/oaiiae/contacts-directory/directory"
)

// ContactsInmem implements [ContactsStore].
type ContactsInmem struct {
	mu       sync.Mutex
	index    map[string]int
	contacts []*directory.Contact
}

var _ ContactsStore = (*ContactsInmem)(nil)

// NewContactsInmem returns a store holding cs in order. Contacts without a
// usable login.uuid, or sharing one with an earlier contact, get a new one.
func NewContactsInmem(cs ...*directory.Contact) *ContactsInmem {
	s := &ContactsInmem{
		index:    make(map[string]int, len(cs)),
		contacts: make([]*directory.Contact, 0, len(cs)),
	}
	for _, c := range cs {
		_, loaded := s.index[c.Login.UUID]
		if loaded || !validContactID(c.Login.UUID) {
			c.Login.UUID = s.newID()
		}
		s.index[c.Login.UUID] = len(s.contacts)
		s.contacts = append(s.contacts, c)
	}
	return s
}

func (s *ContactsInmem) newID() string {
retry:
	id := newContactID()
	_, loaded := s.index[id]
	if loaded {
		goto retry
	}
	return id
}

// Create assigns c a new login.uuid and stores it.
func (s *ContactsInmem) Create(_ context.Context, c *directory.Contact) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Login.UUID = s.newID()
	s.index[c.Login.UUID] = len(s.contacts)
	s.contacts = append(s.contacts, c)
	return c.Login.UUID, nil
}

func (s *ContactsInmem) List(_ context.Context) ([]*directory.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.contacts), nil
}

func (s *ContactsInmem) Get(_ context.Context, id string) (*directory.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return s.contacts[index], nil
}

func (s *ContactsInmem) Delete(_ context.Context, id string) (*directory.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return nil, ErrObjectNotFound
	}
	c := s.contacts[index]
	delete(s.index, id)
	s.contacts = slices.Delete(s.contacts, index, index+1)
	for i, moved := range s.contacts[index:] {
		s.index[moved.Login.UUID] = index + i
	}
	return c, nil
}
