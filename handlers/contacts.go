package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/contacts-directory/datastores"
	"github.com/oaiiae/contacts-directory/directory"
)

type Contacts struct {
	Store        ds.ContactsStore
	ErrorHandler func(context.Context, error)
}

// ContactModel is the wire form of a stored contact: login.uuid plus the
// attributes it was created with, kept verbatim.
type ContactModel map[string]json.RawMessage

// Schema implements [huma.SchemaProvider].
func (ContactModel) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type:        huma.TypeObject,
		Description: "Contact record. Attributes other than login.uuid are stored as given.",
		Properties: map[string]*huma.Schema{
			"login": {
				Type: huma.TypeObject,
				Properties: map[string]*huma.Schema{
					"uuid": {Type: huma.TypeString, Format: "uuid", ReadOnly: true},
				},
				Required:             []string{"uuid"},
				AdditionalProperties: true,
			},
		},
		Required:             []string{"login"},
		AdditionalProperties: true,
	}
}

// ContactInputModel holds the attributes of a contact to create. A
// login.uuid, if present, is replaced.
type ContactInputModel map[string]json.RawMessage

// Schema implements [huma.SchemaProvider].
func (ContactInputModel) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type:                 huma.TypeObject,
		Description:          "Attributes of the new contact.",
		AdditionalProperties: true,
	}
}

func modelOf(c *directory.Contact) (ContactModel, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var m ContactModel
	return m, json.Unmarshal(b, &m)
}

func modelsOf(contacts []*directory.Contact) ([]ContactModel, error) {
	body := make([]ContactModel, 0, len(contacts))
	for _, contact := range contacts {
		m, err := modelOf(contact)
		if err != nil {
			return nil, err
		}
		body = append(body, m)
	}
	return body, nil
}

func (h *Contacts) RegisterList(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/contacts",
		handlerWithErrorHandler(h.list, h.ErrorHandler),
		opErrors(http.StatusInternalServerError),
	)
}

type ContactsListOutput struct {
	Body []ContactModel
}

func (h *Contacts) list(ctx context.Context, _ *struct{}) (*ContactsListOutput, error) {
	contacts, err := h.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	body, err := modelsOf(contacts)
	if err != nil {
		return nil, err
	}
	return &ContactsListOutput{Body: body}, nil
}

func (h *Contacts) RegisterCreate(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/contacts",
		handlerWithErrorHandler(h.create, h.ErrorHandler),
		opStatus(http.StatusCreated),
		opErrors(http.StatusUnprocessableEntity, http.StatusInternalServerError),
	)
}

type ContactOutput struct {
	Body ContactModel
}

func output(c *directory.Contact) (*ContactOutput, error) {
	m, err := modelOf(c)
	if err != nil {
		return nil, err
	}
	return &ContactOutput{Body: m}, nil
}

func (h *Contacts) create(ctx context.Context, input *struct {
	Body ContactInputModel
}) (*ContactOutput, error) {
	b, err := json.Marshal(input.Body)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity("invalid contact", err)
	}
	contact := new(directory.Contact)
	err = json.Unmarshal(b, contact)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity("invalid contact", err)
	}

	_, err = h.Store.Create(ctx, contact)
	if err != nil {
		return nil, err
	}
	return output(contact)
}

func (h *Contacts) RegisterGet(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/contacts/{id}",
		handlerWithErrorHandler(h.get, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusInternalServerError),
	)
}

func (h *Contacts) get(ctx context.Context, input *struct {
	ID string `path:"id" doc:"login.uuid of the contact to get"`
}) (*ContactOutput, error) {
	contact, err := h.Store.Get(ctx, input.ID)
	switch {
	case err == nil:
		return output(contact)

	case errors.Is(err, ds.ErrObjectNotFound):
		return nil, huma.Error404NotFound("id not found", err)

	default:
		return nil, err
	}
}

func (h *Contacts) RegisterDel(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/contacts/{id}",
		handlerWithErrorHandler(h.del, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusInternalServerError),
	)
}

func (h *Contacts) del(ctx context.Context, input *struct {
	ID string `path:"id" doc:"login.uuid of the contact to delete"`
}) (*ContactOutput, error) {
	contact, err := h.Store.Delete(ctx, input.ID)
	switch {
	case err == nil:
		return output(contact)

	case errors.Is(err, ds.ErrObjectNotFound):
		return nil, huma.Error404NotFound("id not found", err)

	default:
		return nil, err
	}
}
