package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress_ChecksumsAnyCase(t *testing.T) {
	t.Parallel()

	cases := []string{
		"0x5B38Da6a701c568545dCfcB03FcB875f56beddC4",
		"0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2",
		"0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db",
	}
	for _, want := range cases {
		lower, err := ParseAddress(toLower(want))
		require.NoError(t, err)
		assert.Equal(t, Address(want), lower)

		upper, err := ParseAddress("0x" + toUpper(want[2:]))
		require.NoError(t, err)
		assert.Equal(t, lower, upper, "identities must compare equal regardless of case")
	}
}

func TestParseAddress_Rejects(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"",
		"5B38Da6a701c568545dCfcB03FcB875f56beddC4",
		"0x5B38Da6a701c568545dCfcB03FcB875f56beddC",
		"0xZZ38Da6a701c568545dCfcB03FcB875f56beddC4",
	} {
		_, err := ParseAddress(in)
		assert.True(t, errors.Is(err, ErrInvalidAddress), "input %q", in)
	}
}

func TestAddress_UnmarshalJSON_Normalises(t *testing.T) {
	t.Parallel()

	var req MintDiplomaRequest
	err := json.Unmarshal([]byte(`{"player":"0x5b38da6a701c568545dcfcb03fcb875f56beddc4","team_id":1,"date":"2024-05-01"}`), &req)
	require.NoError(t, err)
	assert.Equal(t, MustParseAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"), req.Player)
	assert.Empty(t, req.Validate())
}

func TestContainsAddress(t *testing.T) {
	t.Parallel()

	a := MustParseAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")
	b := MustParseAddress("0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2")

	assert.True(t, ContainsAddress([]Address{b, a}, a))
	assert.False(t, ContainsAddress([]Address{b}, a))
	assert.False(t, ContainsAddress(nil, a))
}

func toLower(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'A' && c <= 'F' {
			out[i] = c + 'a' - 'A'
		}
	}
	return string(out)
}

func toUpper(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'a' && c <= 'f' {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}
