package migrate

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/store/memstore"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

func TestSanitizeComponents_DeletesInvalid(t *testing.T) {
	ctx := context.Background()
	kv := memstore.New()
	require.NoError(t, kv.Put(ctx, "x3000c0s1b0n0", []byte(`{"id":"x3000c0s1b0n0"}`)))
	require.NoError(t, kv.Put(ctx, "not-an-xname", []byte(`{"id":"not-an-xname"}`)))
	require.NoError(t, kv.Put(ctx, "mismatched-key", []byte(`{"id":"x3000c0s1b0n0"}`)))
	require.NoError(t, kv.Put(ctx, "no-id", []byte(`{}`)))

	m := &Migrator{Components: kv, Log: logr.Discard()}
	var report Report
	require.NoError(t, m.sanitizeComponents(ctx, &report))

	assert.Equal(t, 3, report.ComponentsDeleted)
	_, err := kv.Get(ctx, "x3000c0s1b0n0")
	assert.NoError(t, err, "the one valid component must survive")
	assert.Len(t, report.Entries, 3)
}

func TestSanitizeSessions_DeletesInvalid(t *testing.T) {
	ctx := context.Background()
	kv := memstore.New()
	validName := "11111111-1111-1111-1111-111111111111"
	validKey := store.TenantKey(validName, "")
	require.NoError(t, kv.Put(ctx, validKey, []byte(`{"name":"`+validName+`"}`)))
	require.NoError(t, kv.Put(ctx, "bogus-key", []byte(`{"name":"not-a-uuid"}`)))
	require.NoError(t, kv.Put(ctx, "another-bogus-key", []byte(`{"name":"`+validName+`"}`)))

	m := &Migrator{Sessions: kv, Log: logr.Discard()}
	var report Report
	require.NoError(t, m.sanitizeSessions(ctx, &report))

	assert.Equal(t, 2, report.SessionsDeleted)
	_, err := kv.Get(ctx, validKey)
	assert.NoError(t, err)
}

func TestSanitizeTemplates_RenamesIllegalName(t *testing.T) {
	ctx := context.Background()
	kv := memstore.New()

	tmpl := types.SessionTemplate{
		Name: "bad name!!",
		BootSets: map[string]types.BootSet{
			"compute": {Path: "s3://boot-images/abc123/manifest.json", NodeList: []string{"x3000c0s1b0n0"}},
		},
	}
	raw, err := json.Marshal(tmpl)
	require.NoError(t, err)
	oldKey := store.TenantKey(tmpl.Name, "")
	require.NoError(t, kv.Put(ctx, oldKey, raw))

	m := &Migrator{Templates: kv, Log: logr.Discard()}
	var report Report
	require.NoError(t, m.sanitizeTemplates(ctx, &report))

	assert.Equal(t, 1, report.TemplatesRenamed)
	_, err = kv.Get(ctx, oldKey)
	assert.ErrorIs(t, err, store.ErrNotFound, "old key must be gone after a rename")
}

func TestSanitizeTemplates_DeletesWhenBootSetUnsalvageable(t *testing.T) {
	ctx := context.Background()
	kv := memstore.New()

	tmpl := types.SessionTemplate{
		Name: "no-nodes",
		BootSets: map[string]types.BootSet{
			"compute": {Path: "s3://boot-images/abc123/manifest.json"},
		},
	}
	raw, err := json.Marshal(tmpl)
	require.NoError(t, err)
	key := store.TenantKey(tmpl.Name, "")
	require.NoError(t, kv.Put(ctx, key, raw))

	m := &Migrator{Templates: kv, Log: logr.Discard()}
	var report Report
	require.NoError(t, m.sanitizeTemplates(ctx, &report))

	assert.Equal(t, 1, report.TemplatesDeleted)
}

func TestSanitizeBootSet_ForcesS3TypeAndDefaultArch(t *testing.T) {
	bs := types.BootSet{
		Path:     "s3://boot-images/abc123/manifest.json",
		NodeList: []string{"x3000c0s1b0n0"},
		Name:     "stale-name",
	}
	fixed, err := sanitizeBootSet("compute", bs)
	require.NoError(t, err)
	assert.Equal(t, "s3", fixed.Type)
	assert.Empty(t, fixed.Name)
	assert.Equal(t, types.ArchX86, fixed.Arch)
}

func TestSanitizeBootSet_MissingPath(t *testing.T) {
	_, err := sanitizeBootSet("compute", types.BootSet{NodeList: []string{"x1"}})
	assert.Error(t, err)
}
