package client

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oaiiae/contacts-directory/cli/api"
)

func newStoreForTest(t *testing.T) (*api.ClientOptions, context.Context) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	srv := httptest.NewServer(api.NewRouter(&api.RouterOptions{EndpointsPrefix: "/api"},
		"contacts", "test", "", "", logger))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return &api.ClientOptions{URL: srv.URL + "/api", Timeout: time.Second, BusyPolicy: "flag"}, ctx
}

func decode(t *testing.T, b *bytes.Buffer) View {
	t.Helper()
	var v View
	require.NoError(t, json.Unmarshal(b.Bytes(), &v))
	b.Reset()
	return v
}

func TestCreateListGetDelete(t *testing.T) {
	options, ctx := newStoreForTest(t)
	store := api.NewStore(options, slog.New(slog.DiscardHandler), nil)
	var out bytes.Buffer

	require.NoError(t, Create(ctx, store, []string{"name=A"}, &out))
	v := decode(t, &out)
	require.False(t, v.APICallInProgress)
	require.Len(t, v.Items, 1)
	require.Nil(t, v.OpenedContact)
	id := v.Items[0].ID()
	require.NotEmpty(t, id)

	var name string
	require.NoError(t, v.Items[0].Field("name", &name))
	require.Equal(t, "A", name)

	require.NoError(t, Get(ctx, store, id, &out))
	v = decode(t, &out)
	require.NotNil(t, v.OpenedContact)
	require.Equal(t, id, v.OpenedContact.ID())

	// a fresh store only learns about the contact through list
	other := api.NewStore(options, slog.New(slog.DiscardHandler), nil)
	require.NoError(t, List(ctx, other, &out))
	require.Len(t, decode(t, &out).Items, 1)

	require.NoError(t, Delete(ctx, store, id, &out))
	require.Empty(t, decode(t, &out).Items)

	require.Error(t, Get(ctx, store, id, &out))
	require.Zero(t, out.Len())
}

func TestParsePartial(t *testing.T) {
	partial, err := ParsePartial([]string{
		"name.first=john",
		"name.last=smith",
		"age=42",
		"email=john@example.com",
		"tags=[\"a\",\"b\"]",
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"name":  map[string]any{"first": "john", "last": "smith"},
		"age":   float64(42),
		"email": "john@example.com",
		"tags":  []any{"a", "b"},
	}, map[string]any(partial))

	_, err = ParsePartial([]string{"novalue"})
	require.Error(t, err)
	_, err = ParsePartial([]string{"=x"})
	require.Error(t, err)
}

func TestParsePartialConflicts(t *testing.T) {
	for _, args := range [][]string{
		{"a=1", "a.b=2"},
		{"a.b=2", "a=1"},
		{"a.b=1", "a.b.c=2"},
		{"a.=x"},
		{".a=x"},
		{"a..b=x"},
	} {
		_, err := ParsePartial(args)
		require.Error(t, err, args)
	}

	partial, err := ParsePartial([]string{"a=1", "a=2"})
	require.NoError(t, err)
	require.Equal(t, float64(2), partial["a"])
}
