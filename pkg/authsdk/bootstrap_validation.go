package authsdk

import (
	"net/mail"
	"regexp"
	"strings"
)

const (
	bootstrapRequiredReason = "required"
	bootstrapOnlyAlphanum   = "must only contain a-z, A-Z, 0-9, _ or -"
)

var reName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks if the bootstrap request fields are valid.
// Returns a map of field names to error messages, or nil if all fields are valid.
func (b BootstrapRequest) Validate() map[string]string {
	errs := make(map[string]string)

	b.validateUsername(errs)
	b.validateEmail(errs)
	b.validatePassword(errs)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (b BootstrapRequest) validateUsername(errs map[string]string) {
	username := strings.TrimSpace(b.AdminUsername)
	switch {
	case username == "":
		errs["admin_username"] = bootstrapRequiredReason
	case len(username) < 3 || len(username) > 32:
		errs["admin_username"] = "must be 3-32 characters"
	case !reName.MatchString(username):
		errs["admin_username"] = bootstrapOnlyAlphanum
	}
}

func (b BootstrapRequest) validateEmail(errs map[string]string) {
	email := strings.TrimSpace(b.AdminEmail)
	if email == "" {
		errs["admin_email"] = bootstrapRequiredReason
		return
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs["admin_email"] = "must be a plain email address"
	}
}

func (b BootstrapRequest) validatePassword(errs map[string]string) {
	pw := b.AdminPassword
	switch {
	case pw == "":
		errs["admin_password"] = bootstrapRequiredReason
	case len(pw) < 8:
		errs["admin_password"] = "too short (min 8)"
	case len(pw) > 128:
		errs["admin_password"] = "too long (max 128)"
	}
}
