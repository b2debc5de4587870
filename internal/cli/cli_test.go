// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProject = "/work/alpha"

// resetFlags restores every flag to its default between invocations of
// the shared RootCmd
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type harness struct {
	t      *testing.T
	dbPath string
}

func newHarness(t *testing.T) *harness {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PROJECT_PATH", "")
	t.Setenv("HIPPOCAMPUS_DB_TYPE", "")
	t.Setenv("HIPPOCAMPUS_DB_PATH", "")
	t.Setenv("DB_TYPE", "")
	t.Setenv("DB_PATH", "")
	return &harness{t: t, dbPath: filepath.Join(t.TempDir(), "cli.db")}
}

// exec runs the command line and returns stdout and the exit code
func (h *harness) exec(stdin string, args ...string) (string, int) {
	h.t.Helper()
	resetFlags(RootCmd)

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetArgs(append([]string{"--db-type", "sqlite", "--db-path", h.dbPath, "--project", testProject}, args...))
	code := Execute()
	return out.String(), code
}

func (h *harness) json(stdin string, args ...string) (map[string]interface{}, int) {
	h.t.Helper()
	out, code := h.exec(stdin, args...)
	var m map[string]interface{}
	require.NoError(h.t, json.Unmarshal([]byte(out), &m), "output: %s", out)
	return m, code
}

func TestAddSearchFlow(t *testing.T) {
	h := newHarness(t)

	added, code := h.json("", "add", "--type", "gotcha", "--tags", "db, sqlite", "--confidence", "high", "SQLite needs a busy timeout")
	require.Equal(t, 0, code)
	assert.Equal(t, true, added["success"])
	id := added["id"].(string)
	require.NotEmpty(t, id)

	dup, code := h.json("", "add", "--type", "gotcha", "sqlite needs a BUSY timeout")
	assert.Equal(t, 0, code, "duplicates are not failures")
	assert.Equal(t, true, dup["duplicate"])
	assert.Equal(t, id, dup["existingId"])

	found, code := h.json("", "search", "busy")
	require.Equal(t, 0, code)
	assert.Equal(t, float64(1), found["count"])

	byTag, _ := h.json("", "search", "sqlite", "--tier", "project")
	assert.Equal(t, float64(1), byTag["count"])

	global, _ := h.json("", "search", "busy", "--tier", "global")
	assert.Equal(t, float64(0), global["count"])

	got, code := h.json("", "get", id)
	require.Equal(t, 0, code)
	mem := got["memory"].(map[string]interface{})
	assert.Equal(t, float64(2), mem["accessCount"], "both matching searches count, get does not")
	assert.ElementsMatch(t, []interface{}{"db", "sqlite"}, mem["tags"])
}

func TestAddFromStdin(t *testing.T) {
	h := newHarness(t)

	added, code := h.json("Prefer table-driven tests\n", "add", "--type", "convention", "--tier", "global")
	require.Equal(t, 0, code)
	id := added["id"].(string)

	got, _ := h.json("", "get", id)
	mem := got["memory"].(map[string]interface{})
	assert.Equal(t, "Prefer table-driven tests", mem["summary"])
	assert.Equal(t, "global", mem["tier"])
}

func TestAdd_DefaultConfidenceIsHigh(t *testing.T) {
	h := newHarness(t)

	added, code := h.json("", "add", "--type", "preference", "Short commit subjects")
	require.Equal(t, 0, code)

	got, _ := h.json("", "get", added["id"].(string))
	assert.Equal(t, "high", got["memory"].(map[string]interface{})["confidence"])

	pruned, code := h.json("", "prune", "--low-days", "0", "--medium-days", "0")
	require.Equal(t, 0, code)
	assert.Equal(t, float64(0), pruned["totalPruned"], "high confidence is never pruned")
}

func TestValidationFailures(t *testing.T) {
	h := newHarness(t)

	out, code := h.json("", "add", "--type", "note", "content")
	assert.Equal(t, 1, code)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Invalid memory type: note. Must be one of: convention, architecture, gotcha, api, learning, preference", out["error"])

	out, code = h.json("", "stats", "--tier", "team")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Invalid tier: team. Must be one of: project, global, both", out["error"])

	out, code = h.json("", "delete", "missing")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Memory not found: missing", out["error"])

	out, code = h.json("", "add", "--type", "api")
	assert.Equal(t, 1, code)
	assert.Contains(t, out["error"], "content is required")
}

func TestContextAndStats(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("", "add", "--type", "architecture", "--confidence", "low", "Services talk over NATS")
	require.Equal(t, 0, code)

	ctxOut, code := h.json("", "context")
	require.Equal(t, 0, code)
	assert.Equal(t, "## Memory Context\n\n- ○ **architecture**: Services talk over NATS\n", ctxOut["context"])

	stats, _ := h.json("", "stats")
	assert.Equal(t, float64(1), stats["total"])
	byType := stats["byType"].(map[string]interface{})
	assert.Equal(t, float64(0), byType["gotcha"])
	assert.Equal(t, float64(1), byType["architecture"])
}

func TestSupersedeAndChain(t *testing.T) {
	h := newHarness(t)

	first, _ := h.json("", "add", "--type", "api", "GET /users is paginated by offset")
	second, code := h.json("", "add", "--type", "api", "--supersedes", first["id"].(string), "GET /users is paginated by cursor")
	require.Equal(t, 0, code)
	assert.Nil(t, second["supersedeWarning"])

	chain, code := h.json("", "chain", second["id"].(string))
	require.Equal(t, 0, code)
	preds := chain["predecessors"].([]interface{})
	require.Len(t, preds, 1)
	assert.Equal(t, first["id"], preds[0].(map[string]interface{})["id"])

	listed, _ := h.json("", "superseded")
	assert.Equal(t, float64(1), listed["count"])

	purged, _ := h.json("", "purge-superseded")
	assert.Equal(t, float64(0), purged["purged"], "replaced within the retention window")

	purged, _ = h.json("", "purge-superseded", "--days", "0")
	assert.Equal(t, float64(1), purged["purged"])
}

func TestRetentionCommands(t *testing.T) {
	h := newHarness(t)

	_, _ = h.exec("", "add", "--type", "learning", "Cache invalidation is hard")
	_, _ = h.exec("", "add", "--type", "learning", "--tier", "global", "cache invalidation is HARD")

	consolidated, code := h.json("", "consolidate", "--tier", "project")
	require.Equal(t, 0, code)
	assert.Equal(t, float64(0), consolidated["removed"])

	consolidated, _ = h.json("", "consolidate", "--tier", "both")
	assert.Equal(t, float64(0), consolidated["removed"], "the second add was refused as a duplicate")

	pruned, code := h.json("", "prune")
	require.Equal(t, 0, code)
	assert.Equal(t, float64(0), pruned["totalPruned"])

	data, code := h.json("", "prune-data", "--dry-run")
	require.Equal(t, 0, code)
	assert.Equal(t, true, data["dryRun"])
}

func TestConsolidate_DefaultsToCurrentProject(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("", "--project", "/work/beta", "add", "--type", "gotcha", "Migrations must be reversible")
	require.Equal(t, 0, code)
	mine, code := h.json("", "add", "--type", "gotcha", "Seed data lives in fixtures")
	require.Equal(t, 0, code)

	// updates skip the duplicate check, so this creates a cross-project duplicate
	_, code = h.exec("", "update", mine["id"].(string), "migrations must be REVERSIBLE")
	require.Equal(t, 0, code)

	out, code := h.json("", "consolidate")
	require.Equal(t, 0, code)
	assert.Equal(t, float64(0), out["removed"])

	out, _ = h.json("", "--project", "/work/beta", "consolidate")
	assert.Equal(t, float64(0), out["removed"])

	out, _ = h.json("", "consolidate", "--tier", "both")
	assert.Equal(t, float64(1), out["removed"])
	assert.Equal(t, []interface{}{mine["id"]}, out["duplicateIds"])
}

func TestSessionCommands(t *testing.T) {
	h := newHarness(t)

	started, code := h.json("", "session", "start", "claude-1")
	require.Equal(t, 0, code)
	sess := started["session"].(map[string]interface{})
	assert.Equal(t, "active", sess["status"])

	turn, code := h.json("", "turn", "start", "claude-1", "--model", "m1", "explain the failing test")
	require.Equal(t, 0, code)
	turnID := turn["turn"].(map[string]interface{})["id"].(string)

	finished, code := h.json("", "turn", "finish", turnID, "--output-tokens", "12", "it was a race")
	require.Equal(t, 0, code)
	assert.Equal(t, float64(12), finished["turn"].(map[string]interface{})["output_tokens"])

	call, code := h.json("", "tool-call", "Bash", "--session", sess["id"].(string), "--turn", turnID)
	require.Equal(t, 0, code)
	assert.Equal(t, "Bash", call["toolCall"].(map[string]interface{})["tool_name"])

	ended, code := h.json("", "session", "end", "claude-1", "--summary", "fixed")
	require.Equal(t, 0, code)
	assert.Equal(t, "completed", ended["session"].(map[string]interface{})["status"])
}

func TestYAMLFormat(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec("", "stats", "--format", "yaml")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "success: true\n")
	assert.Contains(t, out, "total: 0\n")
	assert.Contains(t, out, "byType:\n")
}
