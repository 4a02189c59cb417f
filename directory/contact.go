package directory

import (
	"encoding/json"
	"fmt"
	"maps"
)

type (
	// Contact is a directory record. Only [Login.UUID] is interpreted,
	// every other attribute is carried through unchanged.
	Contact struct {
		Login  Login
		Fields map[string]json.RawMessage
	}

	// Login holds the identifier of a [Contact] and the rest of its
	// login attributes.
	Login struct {
		UUID   string
		Fields map[string]json.RawMessage
	}

	// PartialContact is the payload submitted to create a [Contact].
	PartialContact map[string]any
)

const (
	loginKey = "login"
	uuidKey  = "uuid"
)

// ID returns the identifier of the contact.
func (c Contact) ID() string { return c.Login.UUID }

// Field decodes the opaque attribute name into v.
func (c Contact) Field(name string, v any) error {
	raw, ok := c.Fields[name]
	if !ok {
		return fmt.Errorf("contact: no field %q", name)
	}
	return json.Unmarshal(raw, v)
}

// MarshalJSON implements [json.Marshaler].
func (c Contact) MarshalJSON() ([]byte, error) {
	login, err := json.Marshal(c.Login)
	if err != nil {
		return nil, err
	}
	return marshalWith(c.Fields, loginKey, login)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (c *Contact) UnmarshalJSON(b []byte) error {
	fields, raw, err := unmarshalWithout(b, loginKey)
	if err != nil {
		return err
	}
	var login Login
	if raw != nil {
		err = json.Unmarshal(raw, &login)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}
	*c = Contact{Login: login, Fields: fields}
	return nil
}

// MarshalJSON implements [json.Marshaler].
func (l Login) MarshalJSON() ([]byte, error) {
	id, err := json.Marshal(l.UUID)
	if err != nil {
		return nil, err
	}
	return marshalWith(l.Fields, uuidKey, id)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (l *Login) UnmarshalJSON(b []byte) error {
	fields, raw, err := unmarshalWithout(b, uuidKey)
	if err != nil {
		return err
	}
	var id string
	if raw != nil {
		err = json.Unmarshal(raw, &id)
		if err != nil {
			return fmt.Errorf("uuid: %w", err)
		}
	}
	*l = Login{UUID: id, Fields: fields}
	return nil
}

func marshalWith(fields map[string]json.RawMessage, key string, value json.RawMessage) ([]byte, error) {
	m := make(map[string]json.RawMessage, len(fields)+1)
	maps.Copy(m, fields)
	m[key] = value
	return json.Marshal(m)
}

// unmarshalWithout decodes a JSON object and splits out the value of key.
func unmarshalWithout(b []byte, key string) (map[string]json.RawMessage, json.RawMessage, error) {
	var fields map[string]json.RawMessage
	err := json.Unmarshal(b, &fields)
	if err != nil {
		return nil, nil, err
	}
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		raw = nil
	}
	delete(fields, key)
	return fields, raw, nil
}
