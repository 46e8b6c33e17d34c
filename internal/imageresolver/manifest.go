// Package imageresolver turns a boot set's S3 manifest reference into
// the concrete boot_artifacts triple a component's desired state needs
// (spec §4.6), including kernel-parameter assembly (spec §4.2).
package imageresolver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Cray-HPE/bos-sub000/internal/boserrors"
	"github.com/Cray-HPE/bos-sub000/internal/clients"
	"github.com/Cray-HPE/bos-sub000/internal/rootfs"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// MIME types a manifest artifact entry may carry (spec §4.6).
const (
	mimeKernel  = "application/vnd.cray.image.kernel"
	mimeInitrd  = "application/vnd.cray.image.initrd"
	mimeRootfs  = "application/vnd.cray.image.rootfs.squashfs"
	mimeBootParams = "application/vnd.cray.image.parameters.boot"
)

type manifestLink struct {
	Path string `json:"path"`
	Etag string `json:"etag"`
}

type manifestArtifact struct {
	Type string       `json:"type"`
	Link manifestLink `json:"link"`
	MD5  string       `json:"md5"`
}

type manifest struct {
	Artifacts []manifestArtifact `json:"artifacts"`
}

// Resolver fetches manifests from S3 and assembles boot artifacts.
type Resolver struct {
	s3   *clients.S3
	ims  *clients.IMS
	root *rootfs.Registry
}

func New(s3 *clients.S3, ims *clients.IMS, root *rootfs.Registry) *Resolver {
	return &Resolver{s3: s3, ims: ims, root: root}
}

// Resolve fetches bs's manifest and returns the kernel/initrd boot
// artifacts plus the fully assembled kernel-parameters string, with
// sessionName appended per spec §4.2 step 5.
func (r *Resolver) Resolve(ctx context.Context, bs types.BootSet, sessionName string) (types.BootArtifacts, error) {
	bucket, key, err := clients.ParseS3URL(bs.Path)
	if err != nil {
		return types.BootArtifacts{}, boserrors.New(boserrors.KindValidation, "imageresolver.Resolve", err)
	}

	if bs.Etag != "" {
		etag, err := r.s3.HeadETag(ctx, bucket, key)
		if err != nil {
			return types.BootArtifacts{}, err
		}
		if etag != bs.Etag {
			return types.BootArtifacts{}, boserrors.New(boserrors.KindValidation, "imageresolver.Resolve",
				fmt.Errorf("manifest %s etag mismatch: want %s, got %s", bs.Path, bs.Etag, etag))
		}
	}

	raw, err := r.s3.GetObject(ctx, bucket, key)
	if err != nil {
		return types.BootArtifacts{}, err
	}

	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return types.BootArtifacts{}, boserrors.New(boserrors.KindValidation, "imageresolver.Resolve",
			fmt.Errorf("manifest %s: %w", bs.Path, err))
	}

	byType := map[string][]manifestArtifact{}
	for _, a := range m.Artifacts {
		byType[a.Type] = append(byType[a.Type], a)
	}

	kernel, err := pickOne(byType, mimeKernel, bs.Path)
	if err != nil {
		return types.BootArtifacts{}, err
	}
	initrd, err := pickOne(byType, mimeInitrd, bs.Path)
	if err != nil {
		return types.BootArtifacts{}, err
	}
	if _, err := pickOne(byType, mimeRootfs, bs.Path); err != nil {
		return types.BootArtifacts{}, err
	}

	if err := r.validateArch(ctx, key, bs.EffectiveArch()); err != nil {
		return types.BootArtifacts{}, err
	}

	params, err := r.assembleKernelParameters(ctx, byType, bs, sessionName)
	if err != nil {
		return types.BootArtifacts{}, err
	}

	return types.BootArtifacts{
		Kernel:           kernel.Link.Path,
		Initrd:           initrd.Link.Path,
		KernelParameters: params,
	}, nil
}

func pickOne(byType map[string][]manifestArtifact, mimeType, manifestPath string) (manifestArtifact, error) {
	entries := byType[mimeType]
	switch len(entries) {
	case 0:
		if mimeType == mimeBootParams {
			return manifestArtifact{}, nil
		}
		return manifestArtifact{}, boserrors.New(boserrors.KindValidation, "imageresolver.pickOne",
			fmt.Errorf("manifest %s: missing required artifact type %s", manifestPath, mimeType))
	case 1:
		return entries[0], nil
	default:
		return manifestArtifact{}, boserrors.New(boserrors.KindValidation, "imageresolver.pickOne",
			fmt.Errorf("manifest %s: more than one artifact of type %s", manifestPath, mimeType))
	}
}
