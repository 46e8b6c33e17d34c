package clients

import (
	"context"
	"net/http"
	"strings"

	"github.com/Cray-HPE/bos-sub000/internal/boserrors"
	"github.com/Cray-HPE/bos-sub000/internal/httpclient"
)

// TenantResource is one claim-granting resource attached to a tenant.
type TenantResource struct {
	Xnames []string `json:"xnames"`
}

// Tenant is the claim set a tenant authority record grants.
type Tenant struct {
	Name              string           `json:"name"`
	TenantResources   []TenantResource `json:"tenantresources"`
}

// ErrTenantNotFound is returned when the tenant authority 404s a lookup
// (spec §6.2: "404 means tenant does not exist").
var ErrTenantNotFound = ErrImageNotFound

// TenantAuthority is a typed adapter over the tenant authority.
type TenantAuthority struct {
	base string
	http *httpclient.Client
}

func NewTenantAuthority(baseURL string, http *httpclient.Client) *TenantAuthority {
	return &TenantAuthority{base: strings.TrimRight(baseURL, "/"), http: http}
}

// ClaimSet returns the set of xnames the named tenant may act on.
func (t *TenantAuthority) ClaimSet(ctx context.Context, name string) (map[string]bool, error) {
	resp, err := t.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, t.base+"/tenants/"+name, nil)
	})
	if err != nil {
		return nil, boserrors.New(boserrors.KindTransient, "tenant.ClaimSet", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, boserrors.New(boserrors.KindMissingReferent, "tenant.ClaimSet", ErrTenantNotFound)
	}
	var out Tenant
	if err := decodeJSON(resp, &out); err != nil {
		return nil, boserrors.New(boserrors.KindTransient, "tenant.ClaimSet", err)
	}
	claims := map[string]bool{}
	for _, r := range out.TenantResources {
		for _, x := range r.Xnames {
			claims[x] = true
		}
	}
	return claims, nil
}
