// Package types holds the core entities BOS persists: components, sessions,
// session templates, and the options bag. They are plain JSON-tagged
// structs; nothing here talks to the store or to external services.
package types

import (
	"regexp"
	"time"
)

// XnamePattern matches the xname hardware-identifier syntax (a small,
// deliberately permissive superset: a leading letter-class segment
// followed by alternating alpha/numeric groups, e.g. x3000c0s19b1n0).
var XnamePattern = regexp.MustCompile(`^([a-zA-Z]+[0-9]+)+$`)

// Phase is the single active transition a component is undergoing.
type Phase string

const (
	PhaseNone        Phase = ""
	PhasePoweringOn  Phase = "powering_on"
	PhasePoweringOff Phase = "powering_off"
	PhaseConfiguring Phase = "configuring"
)

// Status is the terminal-or-in-progress state of a component.
type Status string

const (
	StatusStable  Status = "stable"
	StatusFailed  Status = "failed"
	StatusOnHold  Status = "on_hold"
	StatusUnknown Status = ""
)

// BootArtifacts identifies a bootable image plus boot parameters. It is
// either fully populated or fully empty ("empty" means desired state is
// off); callers must not construct a partially-populated value.
type BootArtifacts struct {
	Kernel           string `json:"kernel"`
	Initrd           string `json:"initrd"`
	KernelParameters string `json:"kernel_parameters"`
}

// Empty reports whether all three fields are unset, i.e. the artifact
// triple represents "off".
func (b BootArtifacts) Empty() bool {
	return b.Kernel == "" && b.Initrd == "" && b.KernelParameters == ""
}

// Equal compares two artifact triples field-by-field.
func (b BootArtifacts) Equal(o BootArtifacts) bool {
	return b.Kernel == o.Kernel && b.Initrd == o.Initrd && b.KernelParameters == o.KernelParameters
}

// DesiredState is what a component should converge to.
type DesiredState struct {
	BootArtifacts BootArtifacts `json:"boot_artifacts"`
	Configuration string        `json:"configuration"`
	BSSToken      string        `json:"bss_token"`
	LastUpdated   *time.Time    `json:"last_updated,omitempty"`
}

// StagedState is a DesiredState computed ahead of time by a staged
// session, held until ApplyStaged promotes it.
type StagedState struct {
	DesiredState
	Session string `json:"session"`
}

// ActualState is what a component was last observed to be running.
// BSSToken is the source of truth; BootArtifacts is a cache resolved from
// that token via the boot-artifact cache.
type ActualState struct {
	BootArtifacts BootArtifacts `json:"boot_artifacts"`
	BSSToken      string        `json:"bss_token"`
	LastUpdated   *time.Time    `json:"last_updated,omitempty"`
}

// LastAction records the most recent reconciliation action taken against
// a component, used to compute backoff.
type LastAction struct {
	Action      string     `json:"action"`
	Failed      bool       `json:"failed"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// EventStats counts reconciliation attempts since the last time the
// component reached phase none. Reset to zero on every phase change that
// lands on PhaseNone.
type EventStats struct {
	PowerOnAttempts          int `json:"power_on_attempts"`
	PowerOffGracefulAttempts int `json:"power_off_graceful_attempts"`
	PowerOffForcefulAttempts int `json:"power_off_forceful_attempts"`
}

// ComponentStatus is the status operator's view of a component.
type ComponentStatus struct {
	Phase          Phase  `json:"phase"`
	Status         Status `json:"status"`
	StatusOverride string `json:"status_override,omitempty"`
}

// Component is the root entity keyed by xname. It is global, not
// tenant-scoped.
type Component struct {
	ID           string        `json:"id"`
	Enabled      bool          `json:"enabled"`
	DesiredState DesiredState  `json:"desired_state"`
	StagedState  StagedState   `json:"staged_state"`
	ActualState  ActualState   `json:"actual_state"`
	LastAction   LastAction    `json:"last_action"`
	EventStats   EventStats    `json:"event_stats"`
	Status       ComponentStatus `json:"status"`
	RetryPolicy  int           `json:"retry_policy"`
	Error        string        `json:"error"`
	Session      string        `json:"session"`
}

// ComponentPatch is a partial Component: every field is optional, and
// only the fields a caller sets are merged into the stored record by
// store.ApplyComponentPatch. Nested sections use the matching *Patch
// type so a caller can touch e.g. just Status.Phase.
type ComponentPatch struct {
	ID           string `json:"id"`
	Enabled      *bool  `json:"enabled,omitempty"`
	DesiredState *DesiredStatePatch
	StagedState  *StagedStatePatch
	ActualState  *ActualStatePatch
	LastAction   *LastAction
	EventStats   *EventStats
	Status       *ComponentStatusPatch
	RetryPolicy  *int
	Error        *string
	Session      *string
}

type DesiredStatePatch struct {
	BootArtifacts *BootArtifacts
	Configuration *string
	BSSToken      *string
}

type StagedStatePatch struct {
	DesiredStatePatch
	Session *string
}

type ActualStatePatch struct {
	BootArtifacts *BootArtifacts
	BSSToken      *string
	// Clear, when true, wipes the entire actual_state section instead of
	// merging the other fields (used when power-off completes or a phase
	// transitions out of powering_off).
	Clear bool
}

type ComponentStatusPatch struct {
	Phase          *Phase
	Status         *Status
	StatusOverride *string
}
