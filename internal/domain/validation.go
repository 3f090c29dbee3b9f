package domain

import "strings"

// RequiredFields must be present and non-blank before a document can be
// rendered. Everything else is optional and renders as a placeholder.
var RequiredFields = []string{FieldFullName, FieldEmail}

// ValidateForRender checks the preconditions the renderer relies on.
// It never fills defaults for required fields.
func ValidateForRender(sub Submission) error {
	if !KnownFormType(sub.FormType) {
		return &ValidationError{Field: "form_type", Reason: "unknown form type " + string(sub.FormType)}
	}
	for _, key := range RequiredFields {
		if strings.TrimSpace(sub.Fields[key]) == "" {
			return &ValidationError{Field: key}
		}
	}
	if !plausibleEmail(sub.Fields[FieldEmail]) {
		return &ValidationError{Field: FieldEmail, Reason: "not a plausible address"}
	}
	return nil
}

func plausibleEmail(v string) bool {
	at := strings.Index(v, "@")
	if at <= 0 || at == len(v)-1 {
		return false
	}
	return !strings.ContainsAny(v, " \t\n")
}
