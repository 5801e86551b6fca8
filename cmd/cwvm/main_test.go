package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoPath(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs("../../host/testdata/echo.wasm")
	require.NoError(t, err)
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	body = strings.ReplaceAll(body, "ECHO", echoPath(t))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

type stepReport struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	Action   string          `json:"action"`
	Contract string          `json:"contract"`
	Data     json.RawMessage `json:"data"`
	Events   []struct {
		Type string `json:"type"`
	} `json:"events"`
	Height  uint64 `json:"height"`
	GasUsed uint64 `json:"gas_used"`
}

const scenario = `
accounts:
  alice: [{denom: ucosm, amount: "100"}]
  bob: []
codes:
  echo: ECHO
steps:
  - action: instantiate
    code: echo
    sender: alice
    admin: alice
    label: first
    as: c1
    funds: [{denom: ucosm, amount: "10"}]
    msg: {ok: {messages: [], attributes: [{key: a, value: b}], events: []}}
  - action: execute
    contract: c1
    sender: bob
    msg: {ok: {messages: [], attributes: [], events: [], data: aGk=}}
  - action: execute
    contract: c1
    sender: bob
    expect_error: true
    msg: {error: boom}
  - action: query
    contract: c1
    msg: {ok: eyJjb3VudCI6MX0=}
  - action: next_block
    elapsed: 5s
`

func TestRun(t *testing.T) {
	out, err := execute(t, "run", writeScenario(t, scenario))
	require.NoError(t, err)

	var report struct {
		Metrics map[string]float64 `json:"metrics"`
		Steps   []stepReport       `json:"steps"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Steps, 5)
	assert.Nil(t, report.Metrics)

	inst := report.Steps[0]
	assert.True(t, strings.HasPrefix(inst.Contract, "cosmwasm1"))
	require.Len(t, inst.Events, 2)
	assert.Equal(t, "instantiate", inst.Events[0].Type)
	assert.Equal(t, "wasm", inst.Events[1].Type)
	assert.Positive(t, inst.GasUsed)

	assert.Equal(t, inst.Contract, report.Steps[1].Contract)
	assert.JSONEq(t, `"aGk="`, string(report.Steps[1].Data))

	require.NotNil(t, report.Steps[2].Error)
	assert.Equal(t, "system", report.Steps[2].Error.Type)
	assert.Contains(t, report.Steps[2].Error.Message, "boom")

	assert.JSONEq(t, `{"count":1}`, string(report.Steps[3].Data))
	assert.Equal(t, uint64(2), report.Steps[4].Height)
}

func TestRun_Metrics(t *testing.T) {
	out, err := execute(t, "run", "--metrics", writeScenario(t, scenario))
	require.NoError(t, err)

	var report struct {
		Metrics map[string]float64 `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	// instantiate and both executes; queries are not transactions
	assert.Equal(t, float64(3), report.Metrics["cwvm_dispatch_calls_total"])
}

func TestRun_UnexpectedOutcome(t *testing.T) {
	tests := []struct {
		name  string
		steps string
		want  string
	}{
		{
			name: "failure",
			steps: `
  - {action: instantiate, code: echo, sender: alice, msg: {error: nope}}`,
			want: "step 1 (instantiate)",
		},
		{
			name: "success",
			steps: `
  - {action: instantiate, code: echo, sender: alice, expect_error: true, msg: {ok: {messages: [], attributes: [], events: []}}}`,
			want: "expected an error",
		},
		{
			name: "unknown code",
			steps: `
  - {action: instantiate, code: missing, sender: alice}`,
			want: `unknown code "missing"`,
		},
		{
			name: "unknown action",
			steps: `
  - {action: teleport}`,
			want: `unknown action "teleport"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, "accounts: {alice: []}\ncodes: {echo: ECHO}\nsteps:"+tt.steps+"\n")
			out, err := execute(t, "run", path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			// the failing step is still reported
			assert.Contains(t, out, `"step": 1`)
		})
	}
}

func TestRun_MissingScenario(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read scenario")
}

func TestStore(t *testing.T) {
	out, err := execute(t, "store", echoPath(t), echoPath(t))
	require.NoError(t, err)

	var infos []struct {
		CodeID   uint64 `json:"code_id"`
		Checksum string `json:"checksum"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, uint64(1), infos[0].CodeID)
	assert.Equal(t, uint64(2), infos[1].CodeID)
	assert.Equal(t, infos[0].Checksum, infos[1].Checksum)

	bad := filepath.Join(t.TempDir(), "bad.wasm")
	require.NoError(t, os.WriteFile(bad, []byte("not wasm"), 0o600))
	_, err = execute(t, "store", bad)
	var validation *engerrors.CodeValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestStore_CodeDir(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "--code-dir", dir, "store", echoPath(t))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestSchema(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"max_call_depth"`)
	assert.True(t, json.Valid([]byte(out)))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "cwvm "))
}

func TestInvalidConfig(t *testing.T) {
	_, err := execute(t, "--max-call-depth", "0", "version")
	var cfgErr *engerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "limits.max_call_depth", cfgErr.Field)

	path := filepath.Join(t.TempDir(), "cwvm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain:\n  bech32_prefix: wasm\n"), 0o600))
	out, err := execute(t, "--config", path, "run", writeScenario(t, scenario))
	require.NoError(t, err)
	assert.Contains(t, out, `"wasm1`)
}
