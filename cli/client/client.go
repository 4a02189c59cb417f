// Package client implements the command line operations on a contacts
// [state.Store]. Each operation waits for its task and prints the
// resulting view of the store as JSON.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/oaiiae/contacts-directory/directory"
	"github.com/oaiiae/contacts-directory/state"
)

// View is the part of the store state a user interface reads.
type View struct {
	APICallInProgress bool                `json:"apiCallInProgress"`
	Items             []directory.Contact `json:"items"`
	OpenedContact     *directory.Contact  `json:"openedContact"`
}

func viewOf(d state.Directory) View {
	v := View{
		APICallInProgress: state.APICallInProgress(d),
		Items:             state.Items(d),
	}
	if c, ok := state.OpenedContact(d); ok {
		v.OpenedContact = &c
	}
	if v.Items == nil {
		v.Items = []directory.Contact{}
	}
	return v
}

func printView(w io.Writer, store *state.Store) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(viewOf(store.Snapshot()))
}

func List(ctx context.Context, store *state.Store, w io.Writer) error {
	_, err := store.ListContacts(ctx).Wait(ctx)
	if err != nil {
		return err
	}
	return printView(w, store)
}

// Create creates a contact from key=value arguments. Keys may be dotted to
// build nested objects and values are read as JSON when they parse as such,
// e.g. name.first=john age=42.
func Create(ctx context.Context, store *state.Store, args []string, w io.Writer) error {
	partial, err := ParsePartial(args)
	if err != nil {
		return err
	}
	_, err = store.CreateContact(ctx, partial).Wait(ctx)
	if err != nil {
		return err
	}
	return printView(w, store)
}

// Delete lists the contacts first so the printed items show the removal.
func Delete(ctx context.Context, store *state.Store, id string, w io.Writer) error {
	_, err := store.ListContacts(ctx).Wait(ctx)
	if err != nil {
		return err
	}
	_, err = store.DeleteContact(ctx, id).Wait(ctx)
	if err != nil {
		return err
	}
	return printView(w, store)
}

func Get(ctx context.Context, store *state.Store, id string, w io.Writer) error {
	_, err := store.OpenContact(ctx, id).Wait(ctx)
	if err != nil {
		return err
	}
	return printView(w, store)
}

// ParsePartial builds a [directory.PartialContact] from key=value pairs.
func ParsePartial(args []string) (directory.PartialContact, error) {
	partial := directory.PartialContact{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid attribute %q, want key=value", arg)
		}

		var value any
		if json.Unmarshal([]byte(raw), &value) != nil {
			value = raw
		}

		m := map[string]any(partial)
		path := strings.Split(key, ".")
		if slices.Contains(path, "") {
			return nil, fmt.Errorf("invalid attribute %q, empty key segment", arg)
		}
		for i, k := range path[:len(path)-1] {
			v, exists := m[k]
			next, ok := v.(map[string]any)
			if exists && !ok {
				return nil, fmt.Errorf("invalid attribute %q, %s is already set", arg, strings.Join(path[:i+1], "."))
			}
			if !exists {
				next = map[string]any{}
				m[k] = next
			}
			m = next
		}
		if _, ok := m[path[len(path)-1]].(map[string]any); ok {
			return nil, fmt.Errorf("invalid attribute %q, %s has nested attributes", arg, key)
		}
		m[path[len(path)-1]] = value
	}
	return partial, nil
}
