package clients

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Cray-HPE/bos-sub000/internal/boserrors"
	"github.com/Cray-HPE/bos-sub000/internal/httpclient"
)

// IMSImage is the minimal image-metadata shape the core reads (spec
// §6.2: "{id, name, arch}").
type IMSImage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Arch string `json:"arch"`
}

// ErrImageNotFound is returned when IMS 404s an image lookup (spec
// §6.2: "404 is signalled to the core as ImageNotFound").
var ErrImageNotFound = fmt.Errorf("ims: image not found")

// IMS is a typed adapter over the image metadata store.
type IMS struct {
	base string
	http *httpclient.Client
}

func NewIMS(baseURL string, http *httpclient.Client) *IMS {
	return &IMS{base: strings.TrimRight(baseURL, "/"), http: http}
}

func (i *IMS) Image(ctx context.Context, id string) (IMSImage, error) {
	resp, err := i.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, i.base+"/images/"+id, nil)
	})
	if err != nil {
		return IMSImage{}, boserrors.New(boserrors.KindTransient, "ims.Image", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return IMSImage{}, boserrors.New(boserrors.KindMissingReferent, "ims.Image", ErrImageNotFound)
	}
	var out IMSImage
	if err := decodeJSON(resp, &out); err != nil {
		return IMSImage{}, boserrors.New(boserrors.KindTransient, "ims.Image", err)
	}
	return out, nil
}
