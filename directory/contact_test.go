package directory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContactKeepsOpaqueFields(t *testing.T) {
	const in = `{"email":"a@example.com","login":{"username":"a","uuid":"1"},"name":{"first":"A"}}`

	var c Contact
	require.NoError(t, json.Unmarshal([]byte(in), &c))
	require.Equal(t, "1", c.ID())
	require.Equal(t, "1", c.Login.UUID)

	var name struct{ First string }
	require.NoError(t, c.Field("name", &name))
	require.Equal(t, "A", name.First)
	require.Error(t, c.Field("phone", &name))

	out, err := json.Marshal(c)
	require.NoError(t, err)
	require.JSONEq(t, in, string(out))
}

func TestContactWithoutLogin(t *testing.T) {
	var c Contact
	require.NoError(t, json.Unmarshal([]byte(`{"name":"A"}`), &c))
	require.Empty(t, c.ID())

	out, err := json.Marshal(c)
	require.NoError(t, err)
	require.JSONEq(t, `{"login":{"uuid":""},"name":"A"}`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"login":{"uuid":7}}`), &c))
	require.Error(t, json.Unmarshal([]byte(`[]`), &c))
}
