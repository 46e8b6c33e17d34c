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

func newTestTenant(t *testing.T, handler http.HandlerFunc) *TenantAuthority {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTenantAuthority(srv.URL, httpclient.New(httpclient.DefaultConfig()))
}

func TestTenantAuthority_ClaimSet_UnionsXnamesAcrossResources(t *testing.T) {
	ta := newTestTenant(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tenants/tenant-a", r.URL.Path)
		w.Write([]byte(`{"name":"tenant-a","tenantresources":[{"xnames":["x1","x2"]},{"xnames":["x3"]}]}`))
	})

	claims, err := ta.ClaimSet(context.Background(), "tenant-a")
	require.NoError(t, err)
	assert.True(t, claims["x1"])
	assert.True(t, claims["x2"])
	assert.True(t, claims["x3"])
	assert.False(t, claims["x4"])
}

func TestTenantAuthority_ClaimSet_NotFound(t *testing.T) {
	ta := newTestTenant(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := ta.ClaimSet(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}
