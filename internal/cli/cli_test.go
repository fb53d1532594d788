package cli

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

// testEnv isolates one CLI run from the user's directories.
type testEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
}

type result struct {
	stdout string
	stderr string
	code   int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FACETS_BACKEND", "")
	return &testEnv{
		t:         t,
		configDir: filepath.Join(dir, "config"),
		dataDir:   filepath.Join(dir, "data"),
	}
}

func (e *testEnv) run(args ...string) result {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := Run(full, &stdout, &stderr)
	return result{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func (e *testEnv) mustRun(args ...string) result {
	e.t.Helper()
	r := e.run(args...)
	require.Equal(e.t, exitSuccess, r.code, "facets %v failed: %s", args, r.stderr)
	return r
}

func (e *testEnv) createPerson(name string) string {
	e.t.Helper()
	return strings.TrimSpace(e.mustRun("person", "create", name).stdout)
}

func parseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}

func TestVersion(t *testing.T) {
	e := newTestEnv(t)
	r := e.mustRun("version")
	assert.Contains(t, r.stdout, "facets v"+Version)
	assert.Contains(t, r.stdout, modulePath)
	_, err := os.Stat(e.configDir)
	assert.True(t, os.IsNotExist(err), "version does not touch the config dir")
}

func TestInit(t *testing.T) {
	e := newTestEnv(t)
	r := e.mustRun("init")
	assert.Contains(t, r.stdout, "facets initialized")

	assert.FileExists(t, filepath.Join(e.configDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(e.dataDir, "facets.jsonl"))
	assert.FileExists(t, filepath.Join(e.dataDir, "subjects.jsonl"))
}

func TestInit_RecordsBackend(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun("init", "--backend", "badger")

	raw, err := os.ReadFile(filepath.Join(e.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "backend: badger")
	assert.DirExists(t, filepath.Join(e.dataDir, "badger"))

	id := e.createPerson("John")
	r := e.mustRun("person", "show", id)
	assert.Contains(t, r.stdout, "John", "later commands use the recorded backend")

	assert.Equal(t, exitUserError, e.run("init", "--backend", "postgres").code)
}

func TestDriverScenario(t *testing.T) {
	e := newTestEnv(t)
	id := e.createPerson("John")

	r := e.mustRun("driver", "add", id, "ABCDEF")
	assert.Equal(t, "John drives with licence ABCDEF\n", r.stdout)

	e.mustRun("person", "rename", id, "James")
	r = e.mustRun("--json", "driver", "show", id)
	d := parseJSON[driverOutput](t, r.stdout)
	assert.Equal(t, driverOutput{
		Person:  id,
		Name:    "James",
		Licence: "ABCDEF",
		Driving: "James drives with licence ABCDEF",
	}, d)

	r = e.run("driver", "add", id, "XYZ")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, "facet already exists")

	r = e.mustRun("driver", "show", id)
	assert.Contains(t, r.stdout, "ABCDEF")
}

func TestMemberships(t *testing.T) {
	e := newTestEnv(t)
	id := e.createPerson("John")

	e.mustRun("membership", "add", id, "red", "--position", "goal")
	e.mustRun("membership", "add", id, "blue")
	assert.Equal(t, exitUserError, e.run("membership", "add", id, "red").code)

	r := e.mustRun("--json", "membership", "list", id)
	list := parseJSON[[]membershipOutput](t, r.stdout)
	require.Len(t, list, 2)
	byTeam := map[string]membershipOutput{}
	for _, m := range list {
		byTeam[m.Team] = m
	}
	assert.Equal(t, "John plays goal for red", byTeam["red"].Describe)
	assert.Equal(t, "John plays for blue", byTeam["blue"].Describe)
}

func TestPersonShowAndList(t *testing.T) {
	e := newTestEnv(t)
	john := e.createPerson("John")
	jane := e.createPerson("Jane")
	e.mustRun("driver", "add", john, "ABCDEF")
	e.mustRun("membership", "add", john, "red")

	r := e.mustRun("--json", "person", "show", john)
	p := parseJSON[personOutput](t, r.stdout)
	assert.Equal(t, "John", p.Name)
	require.Len(t, p.Facets, 2)
	byType := map[string]facetOutput{}
	for _, f := range p.Facets {
		byType[f.Type] = f
	}
	assert.Equal(t, "ABCDEF", byType["people.Driver"].Data["licence_number"])
	assert.Empty(t, byType["people.Driver"].ID)
	assert.Equal(t, "red", byType["people.Membership"].ID)

	r = e.mustRun("--json", "person", "list")
	list := parseJSON[[]personOutput](t, r.stdout)
	ids := map[string]string{}
	for _, p := range list {
		ids[p.ID] = p.Name
	}
	assert.Equal(t, map[string]string{john: "John", jane: "Jane"}, ids)

	r = e.mustRun("person", "create", "Jim", "--id", "jim")
	assert.Equal(t, "jim\n", r.stdout)
	assert.Equal(t, exitUserError, e.run("person", "create", "Jim", "--id", "jim").code)
}

func TestFacetsListAndRemove(t *testing.T) {
	e := newTestEnv(t)
	id := e.createPerson("John")
	e.mustRun("driver", "add", id, "ABCDEF")
	e.mustRun("membership", "add", id, "red")

	r := e.mustRun("facets", "list", id)
	assert.Contains(t, r.stdout, "people.Driver licence_number=ABCDEF")
	assert.Contains(t, r.stdout, "people.Membership[red]")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"unknown type", []string{"facets", "remove", id, "pilot"}, exitUserError},
		{"general needs an ID", []string{"facets", "remove", id, "membership"}, exitUserError},
		{"unique takes no ID", []string{"facets", "remove", id, "driver", "x"}, exitUserError},
		{"remove driver", []string{"facets", "remove", id, "driver"}, exitSuccess},
		{"remove driver again", []string{"facets", "remove", id, "driver"}, exitUserError},
		{"remove membership", []string{"facets", "remove", id, "people.Membership", "red"}, exitSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.run(tt.args...)
			assert.Equal(t, tt.code, r.code, r.stderr)
		})
	}

	r = e.mustRun("--json", "facets", "list", id)
	assert.Equal(t, "[]\n", r.stdout)
}

func TestUnknownPerson(t *testing.T) {
	e := newTestEnv(t)
	r := e.run("driver", "show", "nobody")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, "subject not found")
}

func TestConfigErrors(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"),
		[]byte("backend: sqlite\ncache:\n  strategy: lru\n"), 0o644))

	r := e.run("person", "list")
	assert.Equal(t, exitSysError, r.code)
	assert.Contains(t, r.stderr, "cache strategy")
}

func TestEnvOverridesBackend(t *testing.T) {
	e := newTestEnv(t)
	t.Setenv("FACETS_BACKEND", "badger")
	e.createPerson("John")
	assert.DirExists(t, filepath.Join(e.dataDir, "badger"))
}

func TestVerboseLogging(t *testing.T) {
	e := newTestEnv(t)
	r := e.mustRun("--verbose", "person", "list")
	assert.Contains(t, r.stderr, "configuration loaded")
	assert.Contains(t, r.stderr, "level=DEBUG")

	r = e.mustRun("person", "list")
	assert.NotContains(t, r.stderr, "configuration loaded")
}

func TestBoundedCacheConfig(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"),
		[]byte("backend: sqlite\ncache:\n  strategy: bounded\n  capacity: 8\n"), 0o644))

	id := e.createPerson("John")
	e.mustRun("driver", "add", id, "ABCDEF")
	r := e.mustRun("driver", "show", id)
	assert.Contains(t, r.stdout, "ABCDEF")
}
