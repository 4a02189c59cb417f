package directory_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oaiiae/contacts-directory/datastores"
	"github.com/oaiiae/contacts-directory/directory"
	"github.com/oaiiae/contacts-directory/handlers"
	"github.com/oaiiae/contacts-directory/router"
)

func newServer(t *testing.T) *directory.Client {
	t.Helper()
	srv := httptest.NewServer(router.New("contacts", "test",
		func(http.ResponseWriter, *http.Request) {},
		func(http.ResponseWriter, *http.Request) {},
		router.OptGroup("/api", router.OptAutoRegister(&handlers.Contacts{
			Store: datastores.NewContactsInmem(),
		})),
	))
	t.Cleanup(srv.Close)
	return directory.NewClient(srv.URL+"/api/", directory.WithLogger(slog.New(slog.DiscardHandler)))
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClientRoundTrip(t *testing.T) {
	client, ctx := newServer(t), testCtx(t)

	list, err := client.ListContacts(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	created, err := client.CreateContact(ctx, directory.PartialContact{
		"name":  map[string]any{"first": "john", "last": "smith"},
		"login": map[string]any{"username": "jsmith"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID())
	require.JSONEq(t, `"jsmith"`, string(created.Login.Fields["username"]))

	got, err := client.GetContactByID(ctx, created.ID())
	require.NoError(t, err)
	require.Equal(t, created.ID(), got.ID())
	require.JSONEq(t, `{"first":"john","last":"smith"}`, string(got.Fields["name"]))

	list, err = client.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	deleted, err := client.DeleteContact(ctx, created.ID())
	require.NoError(t, err)
	require.Equal(t, created.ID(), deleted.ID())

	list, err = client.ListContacts(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestClientNotFound(t *testing.T) {
	client, ctx := newServer(t), testCtx(t)

	_, err := client.GetContactByID(ctx, "0f8fad5b-d9cb-469f-a165-70867728950e")
	var rerr *directory.RemoteCallError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, http.StatusNotFound, rerr.Status)
	require.Equal(t, http.MethodGet, rerr.Method)
	require.Equal(t, "get contact", rerr.Op)
	require.Contains(t, rerr.Detail, "id not found")

	_, err = client.DeleteContact(ctx, "nope")
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, http.StatusNotFound, rerr.Status)
}

func TestClientMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"login":`)
	}))
	t.Cleanup(srv.Close)

	_, err := directory.NewClient(srv.URL).ListContacts(testCtx(t))
	var rerr *directory.RemoteCallError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, http.StatusOK, rerr.Status)
	require.Error(t, rerr.Unwrap())
}

func TestClientRecordWithoutID(t *testing.T) {
	for _, tc := range []struct {
		name string
		body string
		call func(context.Context, *directory.Client) error
	}{
		{"create", `{"name":"x"}`, func(ctx context.Context, c *directory.Client) error {
			_, err := c.CreateContact(ctx, directory.PartialContact{"name": "x"})
			return err
		}},
		{"delete", `{"error":"oops"}`, func(ctx context.Context, c *directory.Client) error {
			_, err := c.DeleteContact(ctx, "a")
			return err
		}},
		{"list", `[{"login":{"uuid":"a"}},{"login":{}}]`, func(ctx context.Context, c *directory.Client) error {
			_, err := c.ListContacts(ctx)
			return err
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, tc.body)
			}))
			t.Cleanup(srv.Close)

			err := tc.call(testCtx(t), directory.NewClient(srv.URL))
			var rerr *directory.RemoteCallError
			require.ErrorAs(t, err, &rerr)
			require.Equal(t, http.StatusOK, rerr.Status)
			require.ErrorIs(t, err, directory.ErrMissingID)
		})
	}
}

func TestClientTimeoutOption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	own := &http.Client{}
	c := directory.NewClient(srv.URL,
		directory.WithTimeout(50*time.Millisecond),
		directory.WithHTTPClient(own),
	)
	_, err := c.ListContacts(testCtx(t))
	var rerr *directory.RemoteCallError
	require.ErrorAs(t, err, &rerr)
	require.Zero(t, rerr.Status)
	require.Zero(t, own.Timeout)
}

func TestClientPlainErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := directory.NewClient(srv.URL).CreateContact(testCtx(t), directory.PartialContact{"name": "A"})
	var rerr *directory.RemoteCallError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, http.StatusBadGateway, rerr.Status)
	require.Equal(t, "upstream down", rerr.Detail)
	require.Contains(t, err.Error(), "create contact: POST")
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := directory.NewClient(url, directory.WithTimeout(time.Second)).ListContacts(testCtx(t))
	var rerr *directory.RemoteCallError
	require.ErrorAs(t, err, &rerr)
	require.Zero(t, rerr.Status)
	require.True(t, errors.Unwrap(err) != nil)
}
