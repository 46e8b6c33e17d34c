// Package migrate is a one-shot tool that sanitizes BOS records against
// the current API schema after an upgrade (spec §7, "data integrity").
// It never runs as part of the reconciliation loop; the bos-migrate
// binary runs it once, as a separate step before the reconciler's
// operators begin polling, so that a stale or hand-edited record never
// trips a decode error mid-reconciliation.
//
// It corrects what it can and deletes only what it cannot: a component
// or session whose identifying field is missing or invalid, or whose DB
// key disagrees with what its own data implies. Session templates get
// one extra chance: an illegal name is rewritten to a legal one before
// the template is given up on.
package migrate

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"github.com/Cray-HPE/bos-sub000/internal/store"
)

// Report tallies what a run did, for logging and for callers (such as
// an HTTP health/startup handler) that want a summary.
type Report struct {
	ComponentsDeleted int
	SessionsDeleted   int
	TemplatesDeleted  int
	TemplatesRenamed  int
	TemplatesUpdated  int

	// Entries is a human-editable log of every record touched, in the
	// order it was processed, meant to be written out as YAML so an
	// operator reviewing an upgrade can see exactly what happened
	// without grepping structured logs.
	Entries []ReportEntry `yaml:"entries"`
}

// ReportEntry is one corrected, renamed, or deleted record.
type ReportEntry struct {
	Kind   string `yaml:"kind"`
	Key    string `yaml:"key"`
	Action string `yaml:"action"`
	Detail string `yaml:"detail,omitempty"`
}

func (r *Report) record(kind, key, action, detail string) {
	r.Entries = append(r.Entries, ReportEntry{Kind: kind, Key: key, Action: action, Detail: detail})
}

// WriteYAML renders the report as YAML, the form it's kept in on disk
// alongside a migration run's logs so it can be hand-edited or diffed.
func (r Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(r)
}

// Migrator sanitizes the three top-level record kinds BOS persists. The
// three KV handles are expected to be the same ones the reconciler's
// stores wrap (component, session, and session-template keyspaces);
// migrate operates beneath the typed store layer so it can see a
// record's raw key alongside its raw JSON, which is what lets it detect
// a key/data mismatch.
type Migrator struct {
	Components store.KV
	Sessions   store.KV
	Templates  store.KV
	Log        logr.Logger
}

func (m *Migrator) Run(ctx context.Context) (Report, error) {
	var report Report

	m.Log.Info("sanitizing session templates")
	if err := m.sanitizeTemplates(ctx, &report); err != nil {
		return report, fmt.Errorf("migrate: templates: %w", err)
	}
	m.Log.Info("done sanitizing session templates", "renamed", report.TemplatesRenamed, "updated", report.TemplatesUpdated, "deleted", report.TemplatesDeleted)

	m.Log.Info("sanitizing sessions")
	if err := m.sanitizeSessions(ctx, &report); err != nil {
		return report, fmt.Errorf("migrate: sessions: %w", err)
	}
	m.Log.Info("done sanitizing sessions", "deleted", report.SessionsDeleted)

	m.Log.Info("sanitizing components")
	if err := m.sanitizeComponents(ctx, &report); err != nil {
		return report, fmt.Errorf("migrate: components: %w", err)
	}
	m.Log.Info("done sanitizing components", "deleted", report.ComponentsDeleted)

	return report, nil
}

// allRaw drains an Iterator into a slice so callers may freely
// Put/Delete on kv while processing, instead of mutating mid-scan.
func allRaw(ctx context.Context, kv store.KV) (map[string][]byte, error) {
	it, err := kv.Iter(ctx, "", nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	out := map[string][]byte{}
	for {
		key, value, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out[key] = value
	}
	return out, nil
}
