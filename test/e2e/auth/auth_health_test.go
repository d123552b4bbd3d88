package auth_test

import (
	"testing"
)

// TestLivezEndpoint verifies the liveness check endpoint works before bootstrap.
func TestLivezEndpoint(t *testing.T) {
	e := setupAuthContainer(t)

	health, err := e.Client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
}

// TestReadyzEndpoint verifies the readiness check reports the database.
func TestReadyzEndpoint(t *testing.T) {
	e := setupAuthContainer(t)

	health, err := e.Client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	if health.Checks == nil || health.Checks.Database != "ok" {
		t.Fatalf("expected database check ok, got %+v", health.Checks)
	}
}
