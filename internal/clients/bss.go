package clients

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"

	"github.com/Cray-HPE/bos-sub000/internal/boserrors"
	"github.com/Cray-HPE/bos-sub000/internal/httpclient"
)

// BSSBootParams is the subset of a boot-script-service record the core
// reads to derive a manifest location (spec §6.2).
type BSSBootParams struct {
	Hosts  []string `json:"hosts"`
	Kernel string   `json:"kernel"`
	Params string   `json:"params"`
}

// BSS is a typed adapter over the boot-script service. BSS itself is
// out-of-core; the client only needs to read, never write, a node's
// boot parameters.
type BSS struct {
	base string
	http *httpclient.Client
}

func NewBSS(baseURL string, http *httpclient.Client) *BSS {
	return &BSS{base: strings.TrimRight(baseURL, "/"), http: http}
}

func (b *BSS) BootParams(ctx context.Context, xname string) (BSSBootParams, error) {
	q := url.Values{}
	q.Set("name", xname)
	var out []BSSBootParams
	resp, err := b.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, b.base+"/bootparameters?"+q.Encode(), nil)
	})
	if err != nil {
		return BSSBootParams{}, boserrors.New(boserrors.KindTransient, "bss.BootParams", err)
	}
	if err := decodeJSON(resp, &out); err != nil {
		return BSSBootParams{}, boserrors.New(boserrors.KindTransient, "bss.BootParams", err)
	}
	if len(out) == 0 {
		return BSSBootParams{}, boserrors.New(boserrors.KindMissingReferent, "bss.BootParams", ErrImageNotFound)
	}
	return out[0], nil
}

// ManifestPath derives the S3 manifest key from a kernel path, per spec
// §6.2: "kernel.replace('/kernel','/manifest.json')".
func ManifestPath(kernel string) string {
	return strings.Replace(kernel, "/kernel", "/manifest.json", 1)
}

// TokenFor derives the bss_token BOS associates with a kernel/params
// pair. BSS itself has no notion of this token; it exists purely so a
// node's current boot parameters, as last pushed or as later observed
// on BootParams, can be matched against a cached boot_artifacts triple
// without re-deriving it from the manifest every pass.
func TokenFor(kernel, params string) string {
	sum := sha256.Sum256([]byte(kernel + "\x00" + params))
	return hex.EncodeToString(sum[:])
}
