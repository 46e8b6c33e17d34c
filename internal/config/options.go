// Package config provides the Options value operators refresh once per
// pass (spec §9: an explicit method call, never a module-load global).
package config

import "time"

// Options are the tunables from spec §3's Options entity. Code-level
// defaults live in Defaults(); the store's options entry overrides
// selectively.
type Options struct {
	PollingFrequency time.Duration `json:"polling_frequency"`

	BSSReadTimeout time.Duration `json:"bss_read_timeout"`
	CFSReadTimeout time.Duration `json:"cfs_read_timeout"`
	HSMReadTimeout time.Duration `json:"hsm_read_timeout"`
	IMSReadTimeout time.Duration `json:"ims_read_timeout"`
	PCSReadTimeout time.Duration `json:"pcs_read_timeout"`

	MaxBootWaitTime     time.Duration `json:"max_boot_wait_time"`
	MaxPowerOnWaitTime  time.Duration `json:"max_power_on_wait_time"`
	MaxPowerOffWaitTime time.Duration `json:"max_power_off_wait_time"`

	DefaultRetryPolicy int `json:"default_retry_policy"`

	IMSImagesMustExist bool `json:"ims_images_must_exist"`
	RejectNids         bool `json:"reject_nids"`

	MaxComponentBatchSize int `json:"max_component_batch_size"`
	CFSPatchBatchSize     int `json:"cfs_patch_batch_size"`
	HSMQueryBatchSize     int `json:"hsm_query_batch_size"`

	ComponentActualStateTTL       time.Duration `json:"component_actual_state_ttl"`
	CleanupCompletedSessionTTL    time.Duration `json:"cleanup_completed_session_ttl"`
	DisableComponentsOnCompletion bool          `json:"disable_components_on_completion"`

	// GracefulPowerOffAttemptThreshold is the number of graceful
	// power-off attempts tolerated before the forceful operator takes
	// over.
	GracefulPowerOffAttemptThreshold int `json:"graceful_power_off_attempt_threshold"`

	// DisableBasedOnErrorXnameOnOff lists PCS error-message substrings
	// that, when matched, disable the affected xname in addition to
	// marking it failed.
	DisableBasedOnErrorXnameOnOff []string `json:"disable_based_on_error_xname_on_off"`

	RootfsProvider string `json:"default_rootfs_provider"`
}

// Defaults returns the code-level defaults. Per spec §9's open question,
// DisableComponentsOnCompletion defaults to false absent an explicit
// override.
func Defaults() Options {
	return Options{
		PollingFrequency: 10 * time.Second,

		BSSReadTimeout: 10 * time.Second,
		CFSReadTimeout: 10 * time.Second,
		HSMReadTimeout: 10 * time.Second,
		IMSReadTimeout: 10 * time.Second,
		PCSReadTimeout: 10 * time.Second,

		MaxBootWaitTime:     30 * time.Minute,
		MaxPowerOnWaitTime:  5 * time.Minute,
		MaxPowerOffWaitTime: 5 * time.Minute,

		DefaultRetryPolicy: 3,

		IMSImagesMustExist: true,
		RejectNids:         false,

		MaxComponentBatchSize: 2000,
		CFSPatchBatchSize:     1000,
		HSMQueryBatchSize:     200,

		ComponentActualStateTTL:       4 * time.Hour,
		CleanupCompletedSessionTTL:    7 * 24 * time.Hour,
		DisableComponentsOnCompletion: false,

		GracefulPowerOffAttemptThreshold: 3,

		DisableBasedOnErrorXnameOnOff: nil,

		RootfsProvider: "",
	}
}
