package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Cray-HPE/bos-sub000/internal/boserrors"
	"github.com/Cray-HPE/bos-sub000/internal/httpclient"
)

// CFSComponent is the subset of a CFS component record the core reads.
type CFSComponent struct {
	ID              string `json:"id"`
	DesiredConfig   string `json:"desiredConfig"`
	ConfigurationStatus string `json:"configurationStatus"`
	Enabled         bool   `json:"enabled"`
	ErrorCount      int    `json:"errorCount"`
}

// CFS configuration statuses relevant to the status operator's state
// machine (spec §4.4).
const (
	CFSStatusConfigured = "configured"
	CFSStatusPending    = "pending"
	CFSStatusFailed     = "failed"
)

type cfsPatchRequest struct {
	Patch   cfsPatchBody `json:"patch"`
	Filters cfsFilters   `json:"filters"`
}

type cfsPatchBody struct {
	DesiredConfig string            `json:"desired_config,omitempty"`
	Enabled       *bool             `json:"enabled,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`
}

type cfsFilters struct {
	IDs string `json:"ids"`
}

// CFS is a typed adapter over the configuration framework service.
type CFS struct {
	base  string
	http  *httpclient.Client
	batch int
}

func NewCFS(baseURL string, http *httpclient.Client, patchBatchSize int) *CFS {
	return &CFS{base: strings.TrimRight(baseURL, "/"), http: http, batch: patchBatchSize}
}

// Components returns every CFS component named by ids, paging through
// CFS's next-token continuation.
func (c *CFS) Components(ctx context.Context, ids []string) ([]CFSComponent, error) {
	var out []CFSComponent
	next := ""
	q := url.Values{}
	if len(ids) > 0 {
		q.Set("ids", strings.Join(ids, ","))
	}
	for {
		u := c.base + "/components?" + q.Encode()
		if next != "" {
			u += "&next=" + url.QueryEscape(next)
		}
		var page struct {
			Components []CFSComponent `json:"components"`
			Next       string         `json:"next"`
		}
		resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		})
		if err != nil {
			return nil, boserrors.New(boserrors.KindTransient, "cfs.Components", err)
		}
		if err := decodeJSON(resp, &page); err != nil {
			return nil, boserrors.New(boserrors.KindTransient, "cfs.Components", err)
		}
		out = append(out, page.Components...)
		if page.Next == "" {
			break
		}
		next = page.Next
	}
	return out, nil
}

// PatchDesiredConfig tells CFS to configure ids against the given
// configuration, tagging each with bos_session. Requests are chunked at
// c.batch ids (spec §5: "CFS patches are chunked at 1000 ids").
func (c *CFS) PatchDesiredConfig(ctx context.Context, ids []string, configuration, bosSession string) error {
	enabled := true
	for start := 0; start < len(ids); start += c.batch {
		end := start + c.batch
		if end > len(ids) {
			end = len(ids)
		}
		req := cfsPatchRequest{
			Patch: cfsPatchBody{
				DesiredConfig: configuration,
				Enabled:       &enabled,
				Tags:          map[string]string{"bos_session": bosSession},
			},
			Filters: cfsFilters{IDs: strings.Join(ids[start:end], ",")},
		}
		body, err := json.Marshal(req)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.base+"/components", bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			r.Header.Set("Content-Type", "application/json")
			return r, nil
		})
		if err != nil {
			return boserrors.New(boserrors.KindTransient, "cfs.PatchDesiredConfig", err)
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return boserrors.New(boserrors.KindTransient, "cfs.PatchDesiredConfig",
				fmt.Errorf("status %d", resp.StatusCode))
		}
	}
	return nil
}

func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
