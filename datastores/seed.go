package datastores

import (
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/oaiiae/contacts-directory/directory"
)

// LoadSeed reads contacts from a TOML file made of [[contact]] tables.
// Each table is converted to the JSON form of a [directory.Contact].
//
//	[[contact]]
//	name = { first = "john", last = "smith" }
//	email = "john.smith@example.com"
//	login = { username = "jsmith" }
func LoadSeed(path string) ([]*directory.Contact, error) {
	var file struct {
		Contact []map[string]any `toml:"contact"`
	}
	_, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	contacts := make([]*directory.Contact, 0, len(file.Contact))
	for i, table := range file.Contact {
		b, err := json.Marshal(table)
		if err != nil {
			return nil, fmt.Errorf("seed: contact %d: %w", i, err)
		}
		c := new(directory.Contact)
		err = json.Unmarshal(b, c)
		if err != nil {
			return nil, fmt.Errorf("seed: contact %d: %w", i, err)
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}
