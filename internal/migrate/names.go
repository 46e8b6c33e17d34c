package migrate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Cray-HPE/bos-sub000/internal/store"
)

const (
	alphanumeric          = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	templateNameCharset   = alphanumeric + "-._"
	maxTemplateNameLength = 127
)

var nameValidate = newTemplateNameValidator()

func newTemplateNameValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("templatename", func(fl validator.FieldLevel) bool {
		return isLegalTemplateName(fl.Field().String())
	})
	return v
}

type templateNameField struct {
	Name string `validate:"required,max=127,templatename"`
}

func isLegalTemplateName(name string) bool {
	if name == "" || len(name) > maxTemplateNameLength {
		return false
	}
	for _, c := range name {
		if !strings.ContainsRune(templateNameCharset, c) {
			return false
		}
	}
	return true
}

func validTemplateName(name string) bool {
	return nameValidate.Struct(templateNameField{Name: name}) == nil
}

// legalizeTemplateName returns name unchanged if it already follows the
// schema. Otherwise it strips illegal characters and tries suffixes
// until it finds a legal, unused name, per spec §7's template-rename
// fallback. used tracks DB keys already claimed in this migration run
// (tenant-aware keys, not bare names).
func legalizeTemplateName(name, tenant string, used map[string]bool) (string, error) {
	if validTemplateName(name) {
		return name, nil
	}

	hasLegalChar := false
	for _, c := range name {
		if strings.ContainsRune(templateNameCharset, c) {
			hasLegalChar = true
			break
		}
	}
	if name == "" || !hasLegalChar {
		return "", fmt.Errorf("name does not follow schema and has no salvageable characters")
	}

	var stripped strings.Builder
	for _, c := range strings.ReplaceAll(name, " ", "_") {
		if strings.ContainsRune(templateNameCharset, c) {
			stripped.WriteRune(c)
		}
	}
	base := "auto_renamed_" + stripped.String()
	if len(base) > maxTemplateNameLength {
		base = base[:maxTemplateNameLength]
	}

	if strings.ContainsAny(base[len(base)-1:], alphanumeric) {
		if candidate := base; isNameAvailable(candidate, tenant, used) {
			return candidate, nil
		}
	}

	// Trying every 1-character suffix and every 2-character combination
	// with replacement over the 62-character alphanumeric alphabet gives
	// 62 + 1953 = 2015 options, enough effort to make here without
	// looping forever.
	for _, suffixLen := range []int{1, 2} {
		truncated := base
		if max := maxTemplateNameLength - suffixLen - 1; len(truncated) > max {
			truncated = truncated[:max]
		}
		for _, suffix := range suffixCombinations(suffixLen) {
			candidate := truncated + "_" + suffix
			if isNameAvailable(candidate, tenant, used) {
				return candidate, nil
			}
		}
	}

	return "", fmt.Errorf("unable to find an unused, schema-compliant name")
}

func isNameAvailable(name, tenant string, used map[string]bool) bool {
	if !validTemplateName(name) {
		return false
	}
	return !used[store.TenantKey(name, tenant)]
}

// suffixCombinations enumerates combinations with replacement of the
// alphanumeric alphabet at the given length, in a fixed deterministic
// order (mirroring itertools.combinations_with_replacement).
func suffixCombinations(length int) []string {
	if length == 1 {
		out := make([]string, 0, len(alphanumeric))
		for _, c := range alphanumeric {
			out = append(out, string(c))
		}
		return out
	}
	out := make([]string, 0, len(alphanumeric)*len(alphanumeric))
	runes := []rune(alphanumeric)
	for i := 0; i < len(runes); i++ {
		for j := i; j < len(runes); j++ {
			out = append(out, string(runes[i])+string(runes[j]))
		}
	}
	return out
}
