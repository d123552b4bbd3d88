package authsdk_test

import (
	"strings"
	"testing"

	"github.com/smartplant/auth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestBootstrapRequestValidate(t *testing.T) {
	ok := authsdk.BootstrapRequest{
		AdminUsername: "plant_admin",
		AdminEmail:    "admin@example.com",
		AdminPassword: "longenough",
	}
	require.Nil(t, ok.Validate())

	tests := []struct {
		name   string
		mutate func(*authsdk.BootstrapRequest)
		field  string
	}{
		{"missing username", func(r *authsdk.BootstrapRequest) { r.AdminUsername = "" }, "admin_username"},
		{"short username", func(r *authsdk.BootstrapRequest) { r.AdminUsername = "ab" }, "admin_username"},
		{"username symbols", func(r *authsdk.BootstrapRequest) { r.AdminUsername = "plant admin!" }, "admin_username"},
		{"display name email", func(r *authsdk.BootstrapRequest) { r.AdminEmail = "Admin <admin@example.com>" }, "admin_email"},
		{"short password", func(r *authsdk.BootstrapRequest) { r.AdminPassword = "short" }, "admin_password"},
		{"long password", func(r *authsdk.BootstrapRequest) { r.AdminPassword = strings.Repeat("p", 129) }, "admin_password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ok
			tt.mutate(&req)
			errs := req.Validate()
			require.Contains(t, errs, tt.field)
			require.Len(t, errs, 1)
		})
	}
}
