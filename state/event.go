package state

import (
	"github.com/oaiiae/contacts-directory/directory"
)

// Op names one of the four directory operations.
type Op string

const (
	OpListContacts  Op = "contacts/list"
	OpCreateContact Op = "contacts/create"
	OpDeleteContact Op = "contacts/delete"
	OpOpenContact   Op = "contacts/open"
)

// Phase is the lifecycle stage of a task.
type Phase int

const (
	Pending Phase = iota
	Fulfilled
	Rejected
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Event reports a lifecycle change of a task. Which payload field is set
// depends on Op and Phase:
//
//   - Contacts for a fulfilled [OpListContacts]
//   - Contact for any other fulfilled op
//   - Err for a rejected op
type Event struct {
	Op       Op
	Phase    Phase
	TaskID   uint64
	Contacts []directory.Contact
	Contact  directory.Contact
	Err      error
}

// Type returns the event name, e.g. "contacts/list/pending".
func (e Event) Type() string { return string(e.Op) + "/" + e.Phase.String() }

func PendingEvent(op Op, id uint64) Event {
	return Event{Op: op, Phase: Pending, TaskID: id}
}

func ListFulfilledEvent(id uint64, contacts []directory.Contact) Event {
	return Event{Op: OpListContacts, Phase: Fulfilled, TaskID: id, Contacts: contacts}
}

func FulfilledEvent(op Op, id uint64, contact directory.Contact) Event {
	return Event{Op: op, Phase: Fulfilled, TaskID: id, Contact: contact}
}

func RejectedEvent(op Op, id uint64, err error) Event {
	return Event{Op: op, Phase: Rejected, TaskID: id, Err: err}
}
