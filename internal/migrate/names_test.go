package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cray-HPE/bos-sub000/internal/store"
)

func TestIsLegalTemplateName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"plain alphanumeric", "compute-template-1", true},
		{"dots and underscores", "my.template_v2", true},
		{"empty", "", false},
		{"contains space", "has space", false},
		{"contains slash", "has/slash", false},
		{"too long", string(make([]byte, 128)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isLegalTemplateName(tt.in))
		})
	}
}

func TestLegalizeTemplateName_AlreadyLegal(t *testing.T) {
	used := map[string]bool{}
	got, err := legalizeTemplateName("already-legal", "", used)
	require.NoError(t, err)
	assert.Equal(t, "already-legal", got)
}

func TestLegalizeTemplateName_StripsAndRenames(t *testing.T) {
	used := map[string]bool{}
	got, err := legalizeTemplateName("bad name!!", "tenant-a", used)
	require.NoError(t, err)
	assert.True(t, validTemplateName(got))
	assert.Contains(t, got, "auto_renamed_")
}

func TestLegalizeTemplateName_CollisionFallsThroughToSuffix(t *testing.T) {
	used := map[string]bool{}
	first, err := legalizeTemplateName("bad name", "t", used)
	require.NoError(t, err)
	used[store.TenantKey(first, "t")] = true

	second, err := legalizeTemplateName("bad name", "t", used)
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "a second identically-invalid name must not collide with the first rename")
}

func TestLegalizeTemplateName_NoSalvageableCharacters(t *testing.T) {
	_, err := legalizeTemplateName("!!!", "", map[string]bool{})
	assert.Error(t, err)
}
