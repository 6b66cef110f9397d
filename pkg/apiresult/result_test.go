package apiresult

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOK_AlwaysCarriesAnArray(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(OK(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"resultCode":1,"resultData":[],"resultMessages":[]}`, string(data))
}

func TestOKList_CarriesTotalCount(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(OKList([]string{"a"}, 42))
	require.NoError(t, err)
	assert.JSONEq(t, `{"resultCode":1,"resultData":["a"],"resultMessages":[],"totalCount":42}`, string(data))
}

func TestEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(OKList([]map[string]any{{"id": 1}}, 1))
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.True(t, env.OK())
	assert.EqualValues(t, 1, env.TotalCount)

	var items []struct {
		ID int `json:"id"`
	}
	require.NoError(t, env.Decode(&items))
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].ID)
}

func TestEnvelope_Failure(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Fail(CodeInvalidCredentials, "invalid username or password", "second message"))
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.False(t, env.OK())
	assert.Equal(t, CodeInvalidCredentials, env.ResultCode)
	assert.Equal(t, "invalid username or password", env.FirstMessage())
}

func TestEnvelope_FirstMessageEmpty(t *testing.T) {
	t.Parallel()

	env := Envelope{ResultCode: CodeSystem}
	assert.Empty(t, env.FirstMessage())
}
