package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBootArtifacts_Empty(t *testing.T) {
	assert.True(t, BootArtifacts{}.Empty())
	assert.False(t, BootArtifacts{Kernel: "k"}.Empty())
	assert.False(t, BootArtifacts{Initrd: "i"}.Empty())
	assert.False(t, BootArtifacts{KernelParameters: "p"}.Empty())
}

func TestBootArtifacts_Equal(t *testing.T) {
	a := BootArtifacts{Kernel: "k", Initrd: "i", KernelParameters: "p"}
	b := BootArtifacts{Kernel: "k", Initrd: "i", KernelParameters: "p"}
	assert.True(t, a.Equal(b))

	c := BootArtifacts{Kernel: "k", Initrd: "i", KernelParameters: "different"}
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(BootArtifacts{}))
}
