package domain

// BootstrapData describes the first administrator account.
type BootstrapData struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}
