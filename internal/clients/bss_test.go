package clients

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManifestPath(t *testing.T) {
	got := ManifestPath("s3://boot-images/abc123/kernel")
	assert.Equal(t, "s3://boot-images/abc123/manifest.json", got)
}

func TestTokenFor_DeterministicAndDistinct(t *testing.T) {
	a := TokenFor("kernel-a", "params-a")
	b := TokenFor("kernel-a", "params-a")
	assert.Equal(t, a, b)

	c := TokenFor("kernel-a", "params-b")
	assert.NotEqual(t, a, c)

	d := TokenFor("kernel-b", "params-a")
	assert.NotEqual(t, a, d)
}
