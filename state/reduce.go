package state

import (
	"slices"

	"github.com/oaiiae/contacts-directory/directory"
)

// BusyPolicy decides how [Directory.APICallInProgress] follows events.
type BusyPolicy int

const (
	// BusyFlag sets the flag on any pending event and clears it on any
	// settlement, even when another task is still outstanding.
	BusyFlag BusyPolicy = iota

	// BusyCount keeps the flag set until every outstanding task settled.
	BusyCount
)

func (p BusyPolicy) String() string {
	switch p {
	case BusyFlag:
		return "flag"
	case BusyCount:
		return "count"
	default:
		return "unknown"
	}
}

// ParseBusyPolicy parses "flag" or "count".
func ParseBusyPolicy(s string) (BusyPolicy, bool) {
	switch s {
	case "flag", "":
		return BusyFlag, true
	case "count":
		return BusyCount, true
	default:
		return BusyFlag, false
	}
}

// Reduce applies e to d with the [BusyFlag] policy.
func Reduce(d Directory, e Event) Directory { return BusyFlag.Reduce(d, e) }

// Reduce returns the state following e. The operation specific rule runs
// first, then the busy rule common to all operations; both touch disjoint
// fields. d is never modified.
func (p BusyPolicy) Reduce(d Directory, e Event) Directory {
	d = reduceResult(d, e)
	return p.reduceBusy(d, e)
}

func reduceResult(d Directory, e Event) Directory {
	if e.Phase != Fulfilled {
		return d
	}
	switch e.Op {
	case OpListContacts:
		d.Items = slices.Clone(e.Contacts)
	case OpCreateContact:
		items := make([]directory.Contact, 0, len(d.Items)+1)
		items = append(items, e.Contact)
		d.Items = append(items, d.Items...)
	case OpDeleteContact:
		items := make([]directory.Contact, 0, len(d.Items))
		for _, item := range d.Items {
			if item.Login.UUID != e.Contact.Login.UUID {
				items = append(items, item)
			}
		}
		d.Items = items
	case OpOpenContact:
		opened := e.Contact
		d.OpenedContact = &opened
	}
	return d
}

func (p BusyPolicy) reduceBusy(d Directory, e Event) Directory {
	switch e.Phase {
	case Pending:
		d.InFlight++
	case Fulfilled, Rejected:
		d.InFlight = max(d.InFlight-1, 0)
	}

	switch p {
	case BusyCount:
		d.APICallInProgress = d.InFlight > 0
	default:
		d.APICallInProgress = e.Phase == Pending
	}
	return d
}
