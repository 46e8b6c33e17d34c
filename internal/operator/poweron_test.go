package operator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cray-HPE/bos-sub000/internal/clients"
	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/httpclient"
	"github.com/Cray-HPE/bos-sub000/internal/retrypolicy"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/store/memstore"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

func newHTTPClient() *httpclient.Client {
	return httpclient.New(httpclient.DefaultConfig())
}

func TestPowerOn_SkipsLockedAndPowersOnTheRest(t *testing.T) {
	ctx := context.Background()
	var transitioned []string

	pcsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/power-status":
			w.Write([]byte(`{"status":[
				{"xname":"x1","powerState":"off"},
				{"xname":"x2","powerState":"off"}
			]}`))
		case "/transitions":
			body := map[string]any{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			for _, loc := range body["location"].([]any) {
				transitioned = append(transitioned, loc.(map[string]any)["xname"].(string))
			}
			w.Write([]byte(`{"transitionID":"t1"}`))
		}
	}))
	defer pcsSrv.Close()

	hsmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Components":[{"ID":"x1"}]}`))
	}))
	defer hsmSrv.Close()

	components := memstore.New()
	componentStore := store.NewComponentStore(components)
	for _, id := range []string{"x1", "x2"} {
		require.NoError(t, componentStore.Put(ctx, types.Component{
			ID:           id,
			Enabled:      true,
			Status:       types.ComponentStatus{Phase: types.PhasePoweringOn},
			DesiredState: types.DesiredState{BootArtifacts: types.BootArtifacts{Kernel: "k", Initrd: "i", KernelParameters: "p"}},
		}))
	}

	op := &PowerOn{
		Components: componentStore,
		PCS:        clients.NewPCS(pcsSrv.URL, newHTTPClient()),
		HSM:        clients.NewHSM(hsmSrv.URL, newHTTPClient(), 200),
		Backoff:    retrypolicy.NewCalculator(time.Second, time.Minute),
	}

	opts := config.Defaults()
	require.NoError(t, op.RunOnce(ctx, opts))

	assert.ElementsMatch(t, []string{"x2"}, transitioned, "x1 is locked and must be excluded")
}

func TestPowerOn_PCSErrorSkipsTransitionAndDisablesOnMatch(t *testing.T) {
	ctx := context.Background()
	var transitioned []string

	pcsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/power-status":
			w.Write([]byte(`{"status":[
				{"xname":"x1","powerState":"off","error":"bmc unreachable"},
				{"xname":"x2","powerState":"off"}
			]}`))
		case "/transitions":
			body := map[string]any{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			for _, loc := range body["location"].([]any) {
				transitioned = append(transitioned, loc.(map[string]any)["xname"].(string))
			}
			w.Write([]byte(`{"transitionID":"t1"}`))
		}
	}))
	defer pcsSrv.Close()

	hsmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Components":[]}`))
	}))
	defer hsmSrv.Close()

	components := memstore.New()
	componentStore := store.NewComponentStore(components)
	for _, id := range []string{"x1", "x2"} {
		require.NoError(t, componentStore.Put(ctx, types.Component{
			ID:           id,
			Enabled:      true,
			Status:       types.ComponentStatus{Phase: types.PhasePoweringOn},
			DesiredState: types.DesiredState{BootArtifacts: types.BootArtifacts{Kernel: "k", Initrd: "i", KernelParameters: "p"}},
		}))
	}

	op := &PowerOn{
		Components: componentStore,
		PCS:        clients.NewPCS(pcsSrv.URL, newHTTPClient()),
		HSM:        clients.NewHSM(hsmSrv.URL, newHTTPClient(), 200),
		Backoff:    retrypolicy.NewCalculator(time.Second, time.Minute),
	}

	opts := config.Defaults()
	opts.DisableBasedOnErrorXnameOnOff = []string{"unreachable"}
	require.NoError(t, op.RunOnce(ctx, opts))

	assert.ElementsMatch(t, []string{"x2"}, transitioned, "x1 reported a pcs error and must not be transitioned")

	got, err := componentStore.Get(ctx, "x1")
	require.NoError(t, err)
	assert.Equal(t, "bmc unreachable", got.Error)
	assert.False(t, got.Enabled)
}
