package types

// Arch is the CPU architecture of a boot set's image.
type Arch string

const (
	ArchX86     Arch = "X86"
	ArchARM     Arch = "ARM"
	ArchOther   Arch = "Other"
	ArchUnknown Arch = "Unknown"
)

// IMSArch returns the IMS-side architecture string a boot-set Arch maps
// to, per spec §4.6 (X86/ARM/Unknown -> x86_64/aarch64/x86_64).
func (a Arch) IMSArch() string {
	switch a {
	case ArchARM:
		return "aarch64"
	default:
		return "x86_64"
	}
}

// CFSRef is a reference to a CFS configuration.
type CFSRef struct {
	Configuration string `json:"configuration"`
}

// BootSet is a sub-unit of a template: one image, one set of kernel
// parameters, one node selection.
type BootSet struct {
	Name                     string   `json:"name,omitempty"`
	Path                     string   `json:"path"`
	Type                     string   `json:"type"`
	Etag                     string   `json:"etag,omitempty"`
	KernelParameters         string   `json:"kernel_parameters,omitempty"`
	RootfsProvider           string   `json:"rootfs_provider,omitempty"`
	RootfsProviderPassthrough string  `json:"rootfs_provider_passthrough,omitempty"`
	Arch                     Arch     `json:"arch,omitempty"`
	CFS                      *CFSRef  `json:"cfs,omitempty"`
	NodeList                 []string `json:"node_list,omitempty"`
	NodeGroups               []string `json:"node_groups,omitempty"`
	NodeRolesGroups          []string `json:"node_roles_groups,omitempty"`
}

// EffectiveArch returns Arch defaulted to X86, matching the template
// schema default.
func (b BootSet) EffectiveArch() Arch {
	if b.Arch == "" {
		return ArchX86
	}
	return b.Arch
}

// HasNodeSpecifier reports whether at least one node-selection field is
// non-empty, an invariant every boot set must satisfy.
func (b BootSet) HasNodeSpecifier() bool {
	return len(b.NodeList) > 0 || len(b.NodeGroups) > 0 || len(b.NodeRolesGroups) > 0
}

// SessionTemplate is a reusable declaration of boot sets, a configuration
// reference, and node selection rules. Keyed tenant-aware by Name.
type SessionTemplate struct {
	Name        string              `json:"name"`
	Tenant      string              `json:"tenant,omitempty"`
	Description string              `json:"description,omitempty"`
	EnableCFS   bool                `json:"enable_cfs"`
	CFS         CFSRef              `json:"cfs"`
	BootSets    map[string]BootSet  `json:"boot_sets"`
}

// EffectiveConfiguration returns the configuration that applies to a
// given boot set: the boot set's own override if present, else the
// template-level default.
func (t SessionTemplate) EffectiveConfiguration(bsName string) string {
	if bs, ok := t.BootSets[bsName]; ok && bs.CFS != nil && bs.CFS.Configuration != "" {
		return bs.CFS.Configuration
	}
	return t.CFS.Configuration
}
