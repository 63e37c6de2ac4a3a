package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCatalogValidate_EmbeddedSeed(t *testing.T) {
	out, err := execute(t, "catalog", "validate", "--json")
	require.NoError(t, err)

	var report CatalogReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Valid)
	assert.NotEmpty(t, report.Fingerprint)
	assert.Positive(t, report.Concepts)
	assert.Positive(t, report.Missions)
	assert.NotNil(t, report.Warnings)
}

func TestCatalogFingerprint_MatchesValidate(t *testing.T) {
	fp, err := execute(t, "catalog", "fingerprint")
	require.NoError(t, err)

	out, err := execute(t, "catalog", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Fingerprint: "+strings.TrimSpace(fp))
	assert.Contains(t, out, "embedded seed")
}

func TestCatalogValidate_RejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("concepts: [\n"), 0o600))

	_, err := execute(t, "catalog", "validate", "--file", path)
	assert.Error(t, err)

	_, err = execute(t, "catalog", "validate", "--file", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPolicyValidate(t *testing.T) {
	out, err := execute(t, "policy", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "built-in defaults")

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("unknown_section: 1\n"), 0o600))
	_, err = execute(t, "policy", "validate", "--file", path)
	assert.Error(t, err, "unknown fields are rejected")
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	for _, sub := range []string{"up", "down", "status"} {
		_, err := execute(t, "migrate", sub, "--database-url=")
		assert.ErrorIs(t, err, errNoDatabaseURL, sub)
	}
}

func TestPrintMigrationTable(t *testing.T) {
	var buf bytes.Buffer
	printMigrationTable(&buf, []MigrationStatus{{Version: 1, Name: "create_students"}})
	assert.Contains(t, buf.String(), "VERSION")
	assert.Contains(t, buf.String(), "create_students")
	assert.Contains(t, buf.String(), "no")
}
