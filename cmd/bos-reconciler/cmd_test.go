package main

import (
	"testing"

	"github.com/peterbourgon/ff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cray-HPE/bos-sub000/internal/cliflag"
	"github.com/Cray-HPE/bos-sub000/internal/store/memstore"
)

func TestRegisterFlags_ParsesArgsIntoGlobalConfig(t *testing.T) {
	gc := &globalConfig{}
	fs := &cliflag.Set{FlagSet: ff.NewFlagSet("bos-reconciler")}
	registerFlags(fs, gc)

	cli := &ff.Command{Name: "bos-reconciler", Flags: fs.FlagSet}
	require.NoError(t, cli.Parse([]string{
		"-redis-addr", "redis:6379",
		"-hsm-url", "http://hsm",
		"-s3-gateway", "s3:9000",
		"-log-level", "2",
	}))

	assert.Equal(t, "redis:6379", gc.RedisAddr)
	assert.Equal(t, "http", gc.HSMURL.Scheme)
	assert.Equal(t, "hsm", gc.HSMURL.Host)
	assert.Equal(t, "s3:9000", gc.S3Gateway)
	assert.Equal(t, 2, gc.LogLevel)
}

func TestRegisterFlags_DefaultsAppliedWhenUnset(t *testing.T) {
	gc := &globalConfig{}
	fs := &cliflag.Set{FlagSet: ff.NewFlagSet("bos-reconciler")}
	registerFlags(fs, gc)

	cli := &ff.Command{Name: "bos-reconciler", Flags: fs.FlagSet}
	require.NoError(t, cli.Parse(nil))

	assert.Equal(t, "https", gc.S3Protocol)
	assert.Equal(t, "default", gc.S3Region)
	assert.Equal(t, ":8080", gc.MetricsAddr)
	assert.Equal(t, "", gc.RedisAddr)
}

func TestBuildStores_EmptyRedisAddrUsesMemstore(t *testing.T) {
	gc := &globalConfig{RedisAddr: ""}
	components, sessions, templates, options, bootArtifacts := buildStores(gc)

	for _, kv := range []struct {
		name string
		got  interface{}
	}{
		{"components", components},
		{"sessions", sessions},
		{"templates", templates},
		{"options", options},
		{"bootArtifacts", bootArtifacts},
	} {
		_, ok := kv.got.(*memstore.Store)
		assert.True(t, ok, "%s store must be a memstore.Store when redis-addr is empty", kv.name)
	}
}
