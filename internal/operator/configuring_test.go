package operator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cray-HPE/bos-sub000/internal/clients"
	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/store/memstore"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

func TestConfiguring_GroupsBySessionAndConfiguration(t *testing.T) {
	ctx := context.Background()
	var patchedIDs []string

	cfsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		var body struct {
			Filters struct {
				IDs string `json:"ids"`
			} `json:"filters"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		patchedIDs = append(patchedIDs, body.Filters.IDs)
		w.WriteHeader(http.StatusOK)
	}))
	defer cfsSrv.Close()

	artifacts := types.BootArtifacts{Kernel: "k", Initrd: "i", KernelParameters: "p"}
	componentStore := store.NewComponentStore(memstore.New())
	for _, c := range []types.Component{
		{ID: "x1", Enabled: true, Session: "s1",
			Status:       types.ComponentStatus{Phase: types.PhaseConfiguring},
			DesiredState: types.DesiredState{BootArtifacts: artifacts, Configuration: "cfg1"},
			ActualState:  types.ActualState{BootArtifacts: artifacts}},
		{ID: "x2", Enabled: true, Session: "s1",
			Status:       types.ComponentStatus{Phase: types.PhaseConfiguring},
			DesiredState: types.DesiredState{BootArtifacts: artifacts, Configuration: "cfg1"},
			ActualState:  types.ActualState{BootArtifacts: artifacts}},
		{ID: "x3", Enabled: true, Session: "s2",
			Status:       types.ComponentStatus{Phase: types.PhaseConfiguring},
			DesiredState: types.DesiredState{BootArtifacts: artifacts},
			ActualState:  types.ActualState{}},
	} {
		require.NoError(t, componentStore.Put(ctx, c))
	}

	op := &Configuring{Components: componentStore, CFS: clients.NewCFS(cfsSrv.URL, newHTTPClient(), 1000)}
	require.NoError(t, op.RunOnce(ctx, config.Defaults()))

	require.Len(t, patchedIDs, 1, "one group for s1/cfg1; x3 has no desired configuration and is skipped")
	assert.Contains(t, patchedIDs[0], "x1")
	assert.Contains(t, patchedIDs[0], "x2")

	got, err := componentStore.Get(ctx, "x1")
	require.NoError(t, err)
	assert.Equal(t, "configuring", got.LastAction.Action)

	x3, err := componentStore.Get(ctx, "x3")
	require.NoError(t, err)
	assert.Empty(t, x3.LastAction.Action)
}
