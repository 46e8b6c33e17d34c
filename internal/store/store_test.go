package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantKey_DeterministicAndDistinct(t *testing.T) {
	a := TenantKey("my-template", "tenant-a")
	b := TenantKey("my-template", "tenant-a")
	assert.Equal(t, a, b, "key derivation must be deterministic")

	c := TenantKey("my-template", "tenant-b")
	assert.NotEqual(t, a, c, "different tenants must not collide")

	d := TenantKey("other-template", "tenant-a")
	assert.NotEqual(t, a, d, "different names must not collide")
}

func TestTenantKey_EmptyTenantIsNotSpecialCased(t *testing.T) {
	withDefaultTenant := TenantKey("name", "")
	withLiteralEmptyTenant := TenantKey("name", "")
	assert.Equal(t, withDefaultTenant, withLiteralEmptyTenant)
	assert.NotEqual(t, withDefaultTenant, TenantKey("name", "tenant-a"))
}
