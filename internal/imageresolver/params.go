package imageresolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Cray-HPE/bos-sub000/internal/boserrors"
	"github.com/Cray-HPE/bos-sub000/internal/clients"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// imsIDPattern derives the IMS image id from a manifest object path:
// the first path segment (spec §4.6: "regex ^([^/]+)/.+ over the key").
var imsIDPattern = regexp.MustCompile(`^([^/]+)/.+`)

func (r *Resolver) validateArch(ctx context.Context, manifestKey string, arch types.Arch) error {
	if arch == types.ArchOther {
		return nil
	}
	m := imsIDPattern.FindStringSubmatch(manifestKey)
	if m == nil {
		return boserrors.New(boserrors.KindValidation, "imageresolver.validateArch",
			fmt.Errorf("cannot derive IMS image id from manifest path %q", manifestKey))
	}
	image, err := r.ims.Image(ctx, m[1])
	if err != nil {
		return err
	}
	if image.Arch != "" && image.Arch != arch.IMSArch() {
		return boserrors.New(boserrors.KindValidation, "imageresolver.validateArch",
			fmt.Errorf("boot set arch %s (%s) does not match IMS image %s arch %s",
				arch, arch.IMSArch(), image.ID, image.Arch))
	}
	return nil
}

// assembleKernelParameters implements spec §4.2's ordered assembly:
// manifest boot_parameters, boot-set kernel_parameters, a rootfs
// provider's root= clause, its memory-dump clause, and always
// bos_session_id last. Empty parts are skipped.
func (r *Resolver) assembleKernelParameters(ctx context.Context, byType map[string][]manifestArtifact, bs types.BootSet, sessionName string) (string, error) {
	var parts []string

	if entries := byType[mimeBootParams]; len(entries) == 1 {
		bucket, key, err := clients.ParseS3URL(entries[0].Link.Path)
		if err == nil {
			raw, err := r.s3.GetObject(ctx, bucket, key)
			if err == nil {
				if p := strings.TrimSpace(string(raw)); p != "" {
					parts = append(parts, p)
				}
			}
		}
	} else if len(entries) > 1 {
		return "", boserrors.New(boserrors.KindValidation, "imageresolver.assembleKernelParameters",
			fmt.Errorf("manifest %s: more than one boot_parameters artifact", bs.Path))
	}

	if bs.KernelParameters != "" {
		parts = append(parts, bs.KernelParameters)
	}

	provider := r.root.Get(bs.RootfsProvider)
	if root := provider.RootParam(bs.RootfsProviderPassthrough); root != "" {
		parts = append(parts, root)
	}
	if dump := provider.MemDumpParam(); dump != "" {
		parts = append(parts, dump)
	}

	parts = append(parts, "bos_session_id="+sessionName)

	return strings.Join(parts, " "), nil
}
