package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Cray-HPE/bos-sub000/internal/boserrors"
	"github.com/Cray-HPE/bos-sub000/internal/httpclient"
)

// HSMGroup is one hardware-state-manager group (spec §6.2: "list groups
// → {label, members.ids[]}").
type HSMGroup struct {
	Label   string `json:"label"`
	Members struct {
		IDs []string `json:"ids"`
	} `json:"members"`
}

// HSMComponent is the minimal state-component shape the core requires.
type HSMComponent struct {
	ID      string `json:"ID"`
	Type    string `json:"Type"`
	Role    string `json:"Role"`
	SubRole string `json:"SubRole"`
	State   string `json:"State"`
	Enabled bool   `json:"Enabled"`
}

// HSM is a typed adapter over the hardware state manager.
type HSM struct {
	base  string
	http  *httpclient.Client
	batch int
}

func NewHSM(baseURL string, http *httpclient.Client, queryBatchSize int) *HSM {
	return &HSM{base: strings.TrimRight(baseURL, "/"), http: http, batch: queryBatchSize}
}

// Groups returns every HSM group whose label appears in labels, or every
// group if labels is empty.
func (h *HSM) Groups(ctx context.Context, labels []string) ([]HSMGroup, error) {
	u := h.base + "/groups"
	if len(labels) > 0 {
		u += "?group=" + strings.Join(labels, ",")
	}
	var out []HSMGroup
	if err := h.getJSON(ctx, u, &out); err != nil {
		return nil, boserrors.New(boserrors.KindTransient, "hsm.Groups", err)
	}
	return out, nil
}

// RolesGroups returns the HSM members belonging to the given role (and
// optional sub-role, encoded as "role/subrole").
func (h *HSM) RolesGroups(ctx context.Context, roleSpecs []string) ([]HSMComponent, error) {
	var out []HSMComponent
	for _, spec := range roleSpecs {
		role, subrole, _ := strings.Cut(spec, "/")
		q := url.Values{}
		q.Set("role", role)
		if subrole != "" {
			q.Set("subrole", subrole)
		}
		var page struct {
			Components []HSMComponent `json:"Components"`
		}
		if err := h.getJSON(ctx, h.base+"/State/Components?"+q.Encode(), &page); err != nil {
			return nil, boserrors.New(boserrors.KindTransient, "hsm.RolesGroups", err)
		}
		out = append(out, page.Components...)
	}
	return out, nil
}

// StateComponents queries HSM state components by id, chunked at the
// configured batch size (spec §5: "HSM queries at 200 ids").
func (h *HSM) StateComponents(ctx context.Context, ids []string) ([]HSMComponent, error) {
	var out []HSMComponent
	for start := 0; start < len(ids); start += h.batch {
		end := start + h.batch
		if end > len(ids) {
			end = len(ids)
		}
		q := url.Values{}
		q.Set("id", strings.Join(ids[start:end], ","))
		var page struct {
			Components []HSMComponent `json:"Components"`
		}
		if err := h.getJSON(ctx, h.base+"/State/Components?"+q.Encode(), &page); err != nil {
			return nil, boserrors.New(boserrors.KindTransient, "hsm.StateComponents", err)
		}
		out = append(out, page.Components...)
	}
	return out, nil
}

// LockedNodes returns the set of xnames currently locked against actions.
func (h *HSM) LockedNodes(ctx context.Context) (map[string]bool, error) {
	var resp struct {
		Components []struct {
			ID string `json:"ID"`
		} `json:"Components"`
	}
	if err := h.getJSON(ctx, h.base+"/locks/status?lockAlloc=true", &resp); err != nil {
		return nil, boserrors.New(boserrors.KindTransient, "hsm.LockedNodes", err)
	}
	locked := make(map[string]bool, len(resp.Components))
	for _, c := range resp.Components {
		locked[c.ID] = true
	}
	return locked, nil
}

func (h *HSM) getJSON(ctx context.Context, u string, out any) error {
	resp, err := h.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("hsm: %s: status %d", u, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
