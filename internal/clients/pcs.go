package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Cray-HPE/bos-sub000/internal/boserrors"
	"github.com/Cray-HPE/bos-sub000/internal/httpclient"
)

// PowerState is one xname's reported state from PCS's /power-status.
type PowerState struct {
	Xname           string `json:"xname"`
	PowerState      string `json:"powerState"`
	Error           string `json:"error"`
	ManagementState string `json:"managementState"`
}

// Transition operations PCS accepts (spec §6.2).
const (
	TransitionOn        = "On"
	TransitionOff       = "Off"
	TransitionSoftOff   = "Soft-Off"
	TransitionForceOff  = "Force-Off"
)

type transitionLocation struct {
	Xname      string `json:"xname"`
	DeputyKey  string `json:"deputyKey,omitempty"`
}

type transitionRequest struct {
	Operation          string               `json:"operation"`
	Location           []transitionLocation `json:"location"`
	TaskDeadlineMinutes int                 `json:"taskDeadlineMinutes"`
}

type transitionResponse struct {
	TransitionID string `json:"transitionID"`
}

// PCS is a typed adapter over the power control service.
type PCS struct {
	base string
	http *httpclient.Client
}

func NewPCS(baseURL string, http *httpclient.Client) *PCS {
	return &PCS{base: strings.TrimRight(baseURL, "/"), http: http}
}

// PowerStatus queries PCS for the current power state of xnames.
func (p *PCS) PowerStatus(ctx context.Context, xnames []string) ([]PowerState, error) {
	body, err := json.Marshal(map[string][]string{"xname": xnames})
	if err != nil {
		return nil, err
	}
	var out struct {
		Status []PowerState `json:"status"`
	}
	if err := p.postJSON(ctx, p.base+"/power-status", body, &out); err != nil {
		return nil, boserrors.New(boserrors.KindTransient, "pcs.PowerStatus", err)
	}
	return out.Status, nil
}

// Transition issues a power operation against xnames and returns PCS's
// transition id for later correlation.
func (p *PCS) Transition(ctx context.Context, operation string, xnames []string, deadlineMinutes int) (string, error) {
	req := transitionRequest{Operation: operation, TaskDeadlineMinutes: deadlineMinutes}
	for _, x := range xnames {
		req.Location = append(req.Location, transitionLocation{Xname: x})
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	var out transitionResponse
	if err := p.postJSON(ctx, p.base+"/transitions", body, &out); err != nil {
		return "", boserrors.New(boserrors.KindTransient, "pcs.Transition", err)
	}
	return out.TransitionID, nil
}

func (p *PCS) postJSON(ctx context.Context, u string, body []byte, out any) error {
	resp, err := p.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("pcs: %s: status %d", u, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
