package utils

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type payload struct {
	GameType string `json:"gameType"`
	Depth    int    `json:"depth"`
}

func TestDecodeJSONRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"gameType":"chess","depth":2}`))
	var p payload
	require.NoError(t, DecodeJSONRequest(r, &p))
	require.Equal(t, payload{GameType: "chess", Depth: 2}, p)

	for _, body := range []string{
		`{"gameType":"chess","extra":1}`,
		`{"gameType":`,
		`{"depth":1} {"depth":2}`,
	} {
		r := httptest.NewRequest("POST", "/", strings.NewReader(body))
		require.Error(t, DecodeJSONRequest(r, &payload{}), body)
	}
}
