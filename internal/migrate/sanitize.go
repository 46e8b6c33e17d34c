package migrate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/Cray-HPE/bos-sub000/internal/clients"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// sanitizeComponents deletes any component whose id is missing, is not a
// legal xname, or disagrees with its own DB key. There is nothing to
// correct about a component record otherwise: it has no renamable
// identity like a template does.
func (m *Migrator) sanitizeComponents(ctx context.Context, report *Report) error {
	raw, err := allRaw(ctx, m.Components)
	if err != nil {
		return err
	}
	for key, data := range raw {
		id := gjson.GetBytes(data, "id").String()
		if reason := invalidComponentReason(key, id); reason != "" {
			m.Log.Info("deleting component", "key", key, "reason", reason)
			if err := m.Components.Delete(ctx, key); err != nil {
				return fmt.Errorf("delete component %q: %w", key, err)
			}
			report.ComponentsDeleted++
			report.record("component", key, "deleted", reason)
		}
	}
	return nil
}

func invalidComponentReason(key, id string) string {
	if id == "" {
		return "missing 'id' field"
	}
	if !types.XnamePattern.MatchString(id) {
		return "'id' field is not a valid xname"
	}
	if id != key {
		return fmt.Sprintf("db key %q does not match id field %q", key, id)
	}
	return ""
}

// sanitizeSessions deletes any session whose name is missing, is not a
// valid UUID, or disagrees with the tenant-aware key its name and tenant
// imply.
func (m *Migrator) sanitizeSessions(ctx context.Context, report *Report) error {
	raw, err := allRaw(ctx, m.Sessions)
	if err != nil {
		return err
	}
	for key, data := range raw {
		name := gjson.GetBytes(data, "name").String()
		tenant := gjson.GetBytes(data, "tenant").String()
		if reason := invalidSessionReason(key, name, tenant); reason != "" {
			m.Log.Info("deleting session", "key", key, "name", name, "reason", reason)
			if err := m.Sessions.Delete(ctx, key); err != nil {
				return fmt.Errorf("delete session %q: %w", key, err)
			}
			report.SessionsDeleted++
			report.record("session", key, "deleted", reason)
		}
	}
	return nil
}

func invalidSessionReason(key, name, tenant string) string {
	if name == "" {
		return "missing 'name' field"
	}
	if _, err := uuid.Parse(name); err != nil {
		return "'name' field is not a valid UUID"
	}
	if expected := store.TenantKey(name, tenant); key != expected {
		return fmt.Sprintf("db key %q does not match expected key %q", key, expected)
	}
	return ""
}

// sanitizeTemplates attempts to fix each session template in place, and
// only falls back to deleting it when a boot set cannot be made to
// comply (spec §7). A full pass is drained up front so renames and
// deletes don't disturb an in-flight scan, and so renamed-to names can
// be checked for collisions against the rest of the batch.
func (m *Migrator) sanitizeTemplates(ctx context.Context, report *Report) error {
	raw, err := allRaw(ctx, m.Templates)
	if err != nil {
		return err
	}

	used := make(map[string]bool, len(raw))
	for key := range raw {
		used[key] = true
	}

	for key, data := range raw {
		if err := m.sanitizeTemplate(ctx, key, data, used, report); err != nil {
			m.Log.Info("deleting session template", "key", key, "reason", err.Error())
			if delErr := m.Templates.Delete(ctx, key); delErr != nil {
				return fmt.Errorf("delete template %q: %w", key, delErr)
			}
			delete(used, key)
			report.TemplatesDeleted++
			report.record("template", key, "deleted", err.Error())
		}
	}
	return nil
}

// sanitizeTemplate mutates or relocates the template at key as needed.
// A returned error means the template could not be salvaged and the
// caller should delete it.
func (m *Migrator) sanitizeTemplate(ctx context.Context, key string, data []byte, used map[string]bool, report *Report) error {
	name := gjson.GetBytes(data, "name").String()
	if name == "" {
		return fmt.Errorf("missing 'name' field")
	}
	bootSets := gjson.GetBytes(data, "boot_sets")
	if !bootSets.IsObject() || len(bootSets.Map()) == 0 {
		return fmt.Errorf("'boot_sets' field is missing, not an object, or empty")
	}

	var tmpl types.SessionTemplate
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return fmt.Errorf("does not decode as a session template: %w", err)
	}

	before, err := json.Marshal(tmpl)
	if err != nil {
		return err
	}

	for bsName, bs := range tmpl.BootSets {
		fixed, err := sanitizeBootSet(bsName, bs)
		if err != nil {
			return err
		}
		tmpl.BootSets[bsName] = fixed
	}
	sanitizeDescription(&tmpl)
	sanitizeTemplateCFS(&tmpl)

	newName, err := legalizeTemplateName(tmpl.Name, tmpl.Tenant, used)
	if err != nil {
		return err
	}

	if newName == tmpl.Name {
		expectedKey := store.TenantKey(tmpl.Name, tmpl.Tenant)
		if key != expectedKey {
			return fmt.Errorf("db key %q does not match expected key %q", key, expectedKey)
		}
		after, err := json.Marshal(tmpl)
		if err != nil {
			return err
		}
		if string(before) == string(after) {
			return nil
		}
		m.Log.Info("updating session template to comply with schema", "name", tmpl.Name)
		if err := m.Templates.Put(ctx, expectedKey, after); err != nil {
			return fmt.Errorf("put template %q: %w", expectedKey, err)
		}
		report.TemplatesUpdated++
		report.record("template", expectedKey, "updated", "brought into schema compliance")
		return nil
	}

	m.Log.Info("renaming session template", "from", tmpl.Name, "to", newName, "tenant", tmpl.Tenant)
	oldName := tmpl.Name
	tmpl.Name = newName
	recordRename(&tmpl, oldName)

	newKey := store.TenantKey(newName, tmpl.Tenant)
	after, err := json.Marshal(tmpl)
	if err != nil {
		return err
	}
	if err := m.Templates.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete old-named template %q: %w", key, err)
	}
	if err := m.Templates.Put(ctx, newKey, after); err != nil {
		return fmt.Errorf("put renamed template %q: %w", newKey, err)
	}
	delete(used, key)
	used[newKey] = true
	report.TemplatesRenamed++
	report.record("template", newKey, "renamed", fmt.Sprintf("from %q", oldName))
	return nil
}

// sanitizeBootSet returns a corrected copy of bs. An error means the boot set
// cannot be salvaged and the whole template must be deleted: spec §5
// requires every boot set resolve to at least one node selector.
func sanitizeBootSet(name string, bs types.BootSet) (types.BootSet, error) {
	if bs.Path == "" {
		return bs, fmt.Errorf("boot set %q: missing 'path' field", name)
	}
	if _, _, err := clients.ParseS3URL(bs.Path); err != nil {
		return bs, fmt.Errorf("boot set %q: invalid 'path' field: %w", name, err)
	}

	bs.Type = "s3"
	bs.Name = ""
	bs.Arch = bs.EffectiveArch()

	if bs.CFS != nil && bs.CFS.Configuration == "" {
		bs.CFS = nil
	}
	if bs.RootfsProvider == "" {
		bs.RootfsProviderPassthrough = ""
	}

	if !bs.HasNodeSpecifier() {
		return bs, fmt.Errorf("boot set %q has no non-empty node fields (node_list, node_groups, node_roles_groups)", name)
	}
	return bs, nil
}

func sanitizeDescription(tmpl *types.SessionTemplate) {
	if tmpl.Description == "" {
		return
	}
	if len(tmpl.Description) > 1023 {
		tmpl.Description = tmpl.Description[:1023]
	}
}

func sanitizeTemplateCFS(tmpl *types.SessionTemplate) {
	if tmpl.CFS.Configuration == "" {
		tmpl.CFS = types.CFSRef{}
	}
}

func recordRename(tmpl *types.SessionTemplate, oldName string) {
	messages := []string{
		fmt.Sprintf("Former name: %s", oldName),
		"Renamed during BOS upgrade",
		"Auto-renamed",
		"Renamed",
	}
	for _, msg := range messages {
		candidate := msg
		if tmpl.Description != "" {
			candidate = tmpl.Description + "; " + msg
		}
		if len(candidate) <= 1023 {
			tmpl.Description = candidate
			return
		}
	}
}
