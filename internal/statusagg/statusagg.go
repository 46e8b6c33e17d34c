// Package statusagg computes the extended per-session status spec §4.5
// describes: phase percentages, error summaries, and timing, derived on
// request from the components a session owns.
package statusagg

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// ErrorGroup is one distinct error string's aggregate.
type ErrorGroup struct {
	Count int    `json:"count"`
	List  string `json:"list"`
}

// Timing is a session's progress window.
type Timing struct {
	StartTime *time.Time     `json:"start_time"`
	EndTime   *time.Time     `json:"end_time"`
	Duration  *time.Duration `json:"duration"`
}

// ExtendedStatus is the computed GET /sessions/{id}/status payload.
type ExtendedStatus struct {
	ManagedComponentsCount int                    `json:"managed_components_count"`
	PercentPoweringOn      float64                `json:"percent_powering_on"`
	PercentPoweringOff     float64                `json:"percent_powering_off"`
	PercentConfiguring     float64                `json:"percent_configuring"`
	PercentNone            float64                `json:"percent_none"`
	PercentSuccessful      float64                `json:"percent_successful"`
	PercentFailed          float64                `json:"percent_failed"`
	PercentStaged          float64                `json:"percent_staged"`
	ErrorSummary           map[string]ErrorGroup  `json:"error_summary"`
	Timing                 Timing                 `json:"timing"`
	Status                 types.SessionState     `json:"status"`
}

// maxErrorListXnames is the cap on xnames listed per error before
// truncating with "..." (spec §4.5).
const maxErrorListXnames = 10

// Compute derives ExtendedStatus from a session and the components it
// (and its staged counterpart) own.
func Compute(sess types.Session, owned []types.Component, staged []types.Component, now time.Time) ExtendedStatus {
	count := len(owned) + len(staged)

	var result ExtendedStatus
	result.ManagedComponentsCount = count
	result.Status = sess.Status.Status
	result.ErrorSummary = map[string]ErrorGroup{}

	if count == 0 {
		result.Timing = computeTiming(sess, now)
		return result
	}

	var poweringOn, poweringOff, configuring, none, successful, failed int
	errXnames := map[string][]string{}
	for _, c := range owned {
		switch c.Status.Phase {
		case types.PhasePoweringOn:
			poweringOn++
		case types.PhasePoweringOff:
			poweringOff++
		case types.PhaseConfiguring:
			configuring++
		case types.PhaseNone:
			none++
		}
		switch c.Status.Status {
		case types.StatusStable:
			successful++
		case types.StatusFailed:
			failed++
		}
		if c.Error != "" {
			errXnames[c.Error] = append(errXnames[c.Error], c.ID)
		}
	}

	denom := float64(count)
	result.PercentPoweringOn = round2(float64(poweringOn) / denom * 100)
	result.PercentPoweringOff = round2(float64(poweringOff) / denom * 100)
	result.PercentConfiguring = round2(float64(configuring) / denom * 100)
	result.PercentNone = round2(float64(none) / denom * 100)
	result.PercentSuccessful = round2(float64(successful) / denom * 100)
	result.PercentFailed = round2(float64(failed) / denom * 100)
	result.PercentStaged = round2(float64(len(staged)) / denom * 100)

	for msg, xnames := range errXnames {
		sort.Strings(xnames)
		result.ErrorSummary[msg] = ErrorGroup{
			Count: len(xnames),
			List:  truncatedList(xnames),
		}
	}

	result.Timing = computeTiming(sess, now)
	return result
}

func truncatedList(xnames []string) string {
	if len(xnames) <= maxErrorListXnames {
		return strings.Join(xnames, ",")
	}
	return strings.Join(xnames[:maxErrorListXnames], ",") + ",..."
}

func computeTiming(sess types.Session, now time.Time) Timing {
	t := Timing{StartTime: sess.Status.StartTime, EndTime: sess.Status.EndTime}
	switch {
	case sess.Status.StartTime == nil:
		return t
	case sess.Status.EndTime != nil:
		d := sess.Status.EndTime.Sub(*sess.Status.StartTime)
		t.Duration = &d
	default:
		d := now.Sub(*sess.Status.StartTime)
		t.Duration = &d
	}
	return t
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
