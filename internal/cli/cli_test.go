package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/chargedblocks/internal/api/response"
)

const (
	ownerA = "6f1c1c52-8d53-4d5e-9a3e-2b1b6c3b1a01"
	tokenA = "1a2b3c4d-0000-4000-8000-000000000001"
	tokenB = "1a2b3c4d-0000-4000-8000-000000000002"
)

const legacyFixture = ownerA + `:
  ` + tokenA + `:
    material: DIAMOND_BLOCK
    uses: 12
    max_uses: 64
  ` + tokenB + `:
    material: GOLD_BLOCK
    uses: 3
    max_uses: 10
    hidden: true
`

// run executes the root command against dataDir and returns stdout
func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--data-dir", dataDir, "--storage", "flatfile"}, args...))

	err := cmd.Execute()
	return stdout.String(), err
}

func writeLegacy(t *testing.T, dataDir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "data.yml"), []byte(legacyFixture), 0o644))
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestMigrateStatusRunAndValidate(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir)

	out, err := run(t, dir, "-o", "json", "migrate", "status")
	require.NoError(t, err)
	stats := decode[response.MigrationStats](t, out)
	assert.True(t, stats.NeedsMigration)
	assert.True(t, stats.Legacy.Exists)
	assert.Equal(t, 2, stats.Legacy.Records)
	assert.False(t, stats.Valid)

	_, err = run(t, dir, "migrate", "validate")
	assert.Error(t, err)

	out, err = run(t, dir, "-o", "json", "migrate", "run")
	require.NoError(t, err)
	result := decode[MigrationResult](t, out)
	assert.False(t, result.Forced)
	assert.Equal(t, 2, result.Summary.Migrated)
	assert.Equal(t, 1, result.Summary.Owners)
	assert.FileExists(t, filepath.Join(dir, "data.yml.backup"))

	out, err = run(t, dir, "migrate", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "valid")

	out, err = run(t, dir, "migrate", "run")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to migrate")
}

func TestMigrateForceUsesBackup(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir)

	_, err := run(t, dir, "migrate", "run")
	require.NoError(t, err)

	out, err := run(t, dir, "-o", "json", "migrate", "force")
	require.NoError(t, err)
	result := decode[MigrationResult](t, out)
	assert.True(t, result.Forced)
	assert.Equal(t, 2, result.Summary.Migrated)
	assert.Equal(t, filepath.Join(dir, "bindings.yml.backup"), result.Summary.NewBackup)
}

func TestMigrateForceWithoutLegacyFails(t *testing.T) {
	_, err := run(t, t.TempDir(), "migrate", "force")
	assert.Error(t, err)
}

func TestBindingsListMigratesOnOpen(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir)

	out, err := run(t, dir, "-o", "json", "bindings", "list", ownerA)
	require.NoError(t, err)
	list := decode[response.BindingList](t, out)
	require.Len(t, list.Bindings, 1)
	assert.Equal(t, tokenA, list.Bindings[0].TokenID)
	assert.Equal(t, int32(12), list.Bindings[0].Uses)
	assert.Equal(t, int32(64), list.Bindings[0].MaxUses)

	out, err = run(t, dir, "-o", "json", "bindings", "list", "--hidden", ownerA)
	require.NoError(t, err)
	hidden := decode[response.BindingList](t, out)
	require.Len(t, hidden.Bindings, 1)
	assert.Equal(t, tokenB, hidden.Bindings[0].TokenID)
	assert.True(t, hidden.Bindings[0].Hidden)
}

func TestBindingsTextOutput(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir)

	out, err := run(t, dir, "bindings", "list", ownerA)
	require.NoError(t, err)
	assert.Contains(t, out, "TOKEN")
	assert.Contains(t, out, tokenA)
	assert.Contains(t, out, "12/64")
	assert.NotContains(t, out, tokenB)
}

func TestBindingsOwnersAndClear(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir)

	out, err := run(t, dir, "-o", "json", "bindings", "owners")
	require.NoError(t, err)
	assert.Equal(t, []string{ownerA}, decode[OwnerList](t, out).Owners)

	_, err = run(t, dir, "bindings", "delete", ownerA, tokenA)
	require.NoError(t, err)
	out, err = run(t, dir, "-o", "json", "bindings", "list", ownerA)
	require.NoError(t, err)
	assert.Empty(t, decode[response.BindingList](t, out).Bindings)

	_, err = run(t, dir, "bindings", "clear", ownerA)
	require.NoError(t, err)
	out, err = run(t, dir, "-o", "json", "bindings", "owners")
	require.NoError(t, err)
	assert.Empty(t, decode[OwnerList](t, out).Owners)
}

func TestBindingsClearByKind(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir)

	out, err := run(t, dir, "bindings", "clear", "--kind", "GOLD_BLOCK", ownerA)
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 bindings")

	out, err = run(t, dir, "-o", "json", "bindings", "list", "--hidden", ownerA)
	require.NoError(t, err)
	assert.Empty(t, decode[response.BindingList](t, out).Bindings)
}

func TestInvalidPlayerID(t *testing.T) {
	_, err := run(t, t.TempDir(), "bindings", "list", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid player ID")
}

func TestFavoritesToggle(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "-o", "json", "favorites", "toggle", ownerA, "DIAMOND_BLOCK")
	require.NoError(t, err)
	assert.True(t, decode[response.ToggleResponse](t, out).Favorited)

	out, err = run(t, dir, "-o", "json", "favorites", "list", ownerA)
	require.NoError(t, err)
	favs := decode[response.FavoriteList](t, out)
	require.Len(t, favs.Favorites, 1)
	assert.Equal(t, "DIAMOND_BLOCK", favs.Favorites[0].Kind)

	out, err = run(t, dir, "favorites", "toggle", ownerA, "DIAMOND_BLOCK")
	require.NoError(t, err)
	assert.Contains(t, out, "unfavorited")
}

func TestAuditReadsJournal(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir)

	_, err := run(t, dir, "bindings", "clear", ownerA)
	require.NoError(t, err)

	out, err := run(t, dir, "-o", "json", "audit", "--owner", ownerA)
	require.NoError(t, err)
	log := decode[AuditLog](t, out)
	require.Len(t, log.Files, 1)
	require.NotEmpty(t, log.Entries)
	assert.Equal(t, "clear", string(log.Entries[len(log.Entries)-1].Action))

	out, err = run(t, dir, "-o", "json", "audit", "--owner", "0b7e7a43-1f9c-4a5b-8f3e-5d2c9e8a7b02")
	require.NoError(t, err)
	assert.Empty(t, decode[AuditLog](t, out).Entries)
}

func TestMigrateRunIsJournaled(t *testing.T) {
	dir := t.TempDir()
	writeLegacy(t, dir)

	_, err := run(t, dir, "migrate", "run")
	require.NoError(t, err)

	out, err := run(t, dir, "-o", "json", "audit", "--owner", ownerA)
	require.NoError(t, err)
	log := decode[AuditLog](t, out)
	require.Len(t, log.Entries, 1)
	assert.Equal(t, "migration", string(log.Entries[0].Action))
	assert.Equal(t, 2, log.Entries[0].Count)
}

func TestHealth(t *testing.T) {
	out, err := run(t, t.TempDir(), "-o", "json", "health")
	require.NoError(t, err)
	h := decode[response.Health](t, out)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "enabled", h.Registry)
	assert.Equal(t, "flatfile", h.Storage)
}

func TestHealthReportsDisabledRegistry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.yml"), []byte("- not\n- a mapping\n"), 0o644))

	out, err := run(t, dir, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Registry: disabled")
}
