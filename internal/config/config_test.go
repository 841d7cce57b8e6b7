package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "database:\n  path: test.db\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "test.db", cfg.Database.Path)
	assert.Equal(t, 3, cfg.Workflow.MaxReminders)

	// The demo roster backs the routing directory out of the box
	assert.Equal(t, "MGR001", cfg.Approvers.Manager.ID)
	assert.Equal(t, "sarah.johnson@company.com", cfg.Approvers.Manager.Email)
	assert.Equal(t, "HR001", cfg.Approvers.HR.ID)
	assert.Equal(t, "FIN001", cfg.Approvers.Finance.ID)
	assert.Equal(t, "IT001", cfg.Approvers.IT.ID)
}

func TestLoadApproverOverride(t *testing.T) {
	path := writeConfig(t, `database:
  path: test.db
approvers:
  finance:
    id: "FIN042"
    name: "Dana Wu"
    email: "dana.wu@company.com"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "FIN042", cfg.Approvers.Finance.ID)
	assert.Equal(t, "Dana Wu", cfg.Approvers.Finance.Name)
	assert.Equal(t, "dana.wu@company.com", cfg.Approvers.Finance.Email)

	// Untouched roles keep their defaults
	assert.Equal(t, "MGR001", cfg.Approvers.Manager.ID)
	assert.Equal(t, "HR001", cfg.Approvers.HR.ID)
}

func TestLoadRejectsEmptyApproverID(t *testing.T) {
	path := writeConfig(t, `database:
  path: test.db
approvers:
  manager:
    id: ""
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approvers.manager.id")
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	path := writeConfig(t, `server:
  port: 70000
database:
  path: test.db
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}
