package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxstudio/gridparity/internal/artifact"
)

// testManifest covers both dimensionalities plus one model from each
// skip list: WaveDungeon is unsupported, RiverTest1 is test-only.
const testManifest = `<models>
	<model name="Basic"/>
	<model name="River" size="10"/>
	<model name="PillarsOfEternity" d="3" size="8"/>
	<model name="WaveDungeon"/>
	<model name="RiverTest1"/>
</models>`

// testWorkspace is an isolated config, manifest, and artifact layout
// for command tests.
type testWorkspace struct {
	dir          string
	configPath   string
	manifestPath string
	ledgerPath   string
	historyPath  string
	refDir       string
	candDir      string
}

func newTestWorkspace(t *testing.T) *testWorkspace {
	t.Helper()
	dir := t.TempDir()
	ws := &testWorkspace{
		dir:          dir,
		configPath:   filepath.Join(dir, "gridparity.cue"),
		manifestPath: filepath.Join(dir, "models.xml"),
		ledgerPath:   filepath.Join(dir, "status.json"),
		historyPath:  filepath.Join(dir, "history.db"),
		refDir:       filepath.Join(dir, "ref"),
		candDir:      filepath.Join(dir, "cand"),
	}
	require.NoError(t, os.WriteFile(ws.manifestPath, []byte(testManifest), 0o644))
	ws.writeConfig(t, "")
	return ws
}

// writeConfig renders the workspace config. The engine commands default
// to "false" so any unexpected generation attempt fails loudly instead
// of shelling out to real engines; extra CUE is appended verbatim.
func (ws *testWorkspace) writeConfig(t *testing.T, extra string) {
	t.Helper()
	cfg := fmt.Sprintf(`manifest: %q
ledger:   %q
history:  %q
reference: {
	command:   ["false"]
	dir:       ""
	artifacts: %q
}
candidate: {
	command:   ["false"]
	artifacts: %q
}
%s`, ws.manifestPath, ws.ledgerPath, ws.historyPath, ws.refDir, ws.candDir, extra)
	require.NoError(t, os.WriteFile(ws.configPath, []byte(cfg), 0o644))
}

func (ws *testWorkspace) writeLedger(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(ws.ledgerPath, []byte(content), 0o644))
}

func (ws *testWorkspace) store() *artifact.Store {
	return artifact.NewStore(ws.refDir, ws.candDir)
}

func (ws *testWorkspace) putGrid(t *testing.T, role artifact.Role, g *artifact.Grid) {
	t.Helper()
	require.NoError(t, ws.store().Put(role, g.Model, g.Seed, g))
}

func makeGrid(model string, seed int, state ...int) *artifact.Grid {
	return &artifact.Grid{
		Model:      model,
		Seed:       seed,
		Dimensions: [3]int{len(state), 1, 1},
		Palette:    []string{"B", "W", "R", "G"},
		State:      state,
	}
}

// runCommand executes the CLI against the workspace config and returns
// captured stdout. Stderr is discarded separately so output assertions
// stay byte-exact.
func runCommand(t *testing.T, ws *testWorkspace, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--config", ws.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

// dataMap unwraps the Data payload of a decoded CLIResponse.
func dataMap(t *testing.T, resp CLIResponse) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "response data should be an object, got %T", resp.Data)
	return m
}
