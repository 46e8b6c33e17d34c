package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cray-HPE/bos-sub000/internal/httpclient"
)

func newTestHSM(t *testing.T, handler http.HandlerFunc) *HSM {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHSM(srv.URL, httpclient.New(httpclient.DefaultConfig()), 200)
}

func TestHSM_LockedNodes(t *testing.T) {
	hsm := newTestHSM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locks/status", r.URL.Path)
		w.Write([]byte(`{"Components":[{"ID":"x3000c0s1b0n0"},{"ID":"x3000c0s2b0n0"}]}`))
	})

	locked, err := hsm.LockedNodes(context.Background())
	require.NoError(t, err)
	assert.True(t, locked["x3000c0s1b0n0"])
	assert.True(t, locked["x3000c0s2b0n0"])
	assert.False(t, locked["x3000c0s3b0n0"])
}

func TestHSM_Groups(t *testing.T) {
	hsm := newTestHSM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "compute", r.URL.Query().Get("group"))
		w.Write([]byte(`[{"label":"compute","members":{"ids":["x1","x2"]}}]`))
	})

	groups, err := hsm.Groups(context.Background(), []string{"compute"})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"x1", "x2"}, groups[0].Members.IDs)
}

func TestHSM_LockedNodes_ServerError(t *testing.T) {
	hsm := newTestHSM(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := hsm.LockedNodes(context.Background())
	assert.Error(t, err)
}
