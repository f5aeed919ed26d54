package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
groups: [{name: "gnu", compilers: [{host: "g++", version: "9"}]}]
backends: [{kind: "serial"}]
boost_versions: ["1.75.0"]
rules: []
images: {"g++": ".base_gcc"}
backend_settings: {serial: {before_script: ["echo serial"]}}
before_script: ["apt-get update -qq"]
run_folders: ["pmacc"]
`

const testFolders = "pmacc\nshare/picongpu/examples/KelvinHelmholtz\n"

func writeCatalog(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// executeMatrix runs "picci matrix" with stdin and returns stdout and stderr.
func executeMatrix(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestMatrix_Pipeline(t *testing.T) {
	config := writeCatalog(t, testCatalog)

	out, _, err := executeMatrix(t, testFolders, "matrix", "--config", config, "-j", "1")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "pipeline", []byte(out))
}

func TestMatrix_Compact(t *testing.T) {
	config := writeCatalog(t, testCatalog)

	out, _, err := executeMatrix(t, testFolders, "matrix", "--config", config, "-j", "1", "--compact")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "compact", []byte(out))
}

func TestMatrix_EmptyInput(t *testing.T) {
	config := writeCatalog(t, testCatalog)

	out, errOut, err := executeMatrix(t, "\n  \n", "matrix", "--config", config)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "empty", []byte(out))
	assert.Contains(t, errOut, "level=WARN")
	assert.Contains(t, errOut, "no test case folders")
}

func TestMatrix_JSON(t *testing.T) {
	config := writeCatalog(t, testCatalog)

	out, _, err := executeMatrix(t, testFolders, "--format", "json", "matrix", "--config", config)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   MatrixResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Strength)
	assert.Equal(t, 1, resp.Data.Stages)
	require.Len(t, resp.Data.Jobs, 2)
	assert.Equal(t, "g++-9_serial_boost1.75.0_pmacc", resp.Data.Jobs[0].Name)
	assert.Equal(t, ".base_gcc_compile", resp.Data.Jobs[1].Extends)
}

func TestMatrix_CompactJSON(t *testing.T) {
	config := writeCatalog(t, testCatalog)

	out, _, err := executeMatrix(t, testFolders, "--format", "json", "matrix", "--config", config, "--compact", "-j", "1")
	require.NoError(t, err)

	var resp struct {
		Data MatrixResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []CompactJob{
		{Stage: 0, Index: 0, Job: "(g++ 9, serial, 1.75.0, pmacc)"},
		{Stage: 1, Index: 1, Job: "(g++ 9, serial, 1.75.0, share/picongpu/examples/KelvinHelmholtz)"},
	}, resp.Data.Compact)
}

func TestMatrix_DefaultCatalog(t *testing.T) {
	out, _, err := executeMatrix(t, "pmacc\n", "matrix", "-n", "2", "--limit_boost_versions", "-j", "10")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "stages:\n  - job_0\n"))
	assert.Contains(t, out, "PIC_TEST_CASE_FOLDER: 'pmacc'")
	assert.Contains(t, out, "_run\n")
	assert.NotContains(t, out, "_compile\n")
}

func TestMatrix_Errors(t *testing.T) {
	tests := []struct {
		name    string
		catalog string
		args    []string
		wantMsg string
	}{
		{
			name:    "strength too high",
			catalog: testCatalog,
			args:    []string{"-n", "5"},
			wantMsg: "strength",
		},
		{
			name:    "unparseable strength",
			catalog: testCatalog,
			args:    []string{"-n", "abc"},
			wantMsg: "Error [" + ErrCodeConfig + "]: parsing flags: strength: invalid flag",
		},
		{
			name:    "unparseable jobs per stage",
			catalog: testCatalog,
			args:    []string{"-j", "x"},
			wantMsg: "Error [" + ErrCodeConfig + "]: parsing flags: jobs-per-stage: invalid flag",
		},
		{
			name:    "unknown flag",
			catalog: testCatalog,
			args:    []string{"--stages", "3"},
			wantMsg: "stages: invalid flag",
		},
		{
			name:    "zero jobs per stage",
			catalog: testCatalog,
			args:    []string{"-j", "0"},
			wantMsg: "jobs-per-stage",
		},
		{
			name:    "missing image",
			catalog: strings.Replace(testCatalog, `images: {"g++": ".base_gcc"}`, `images: {}`, 1),
			wantMsg: `no base image "g++" for compiler g++ 9 with backend serial`,
		},
		{
			name:    "bad compiler version",
			catalog: strings.Replace(testCatalog, `version: "9"`, `version: "nine"`, 1),
			wantMsg: "catalog.cue:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := writeCatalog(t, tt.catalog)
			args := append([]string{"matrix", "--config", config}, tt.args...)

			out, errOut, err := executeMatrix(t, testFolders, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Empty(t, out)
			assert.Contains(t, errOut, "Error [E")
			assert.Contains(t, errOut, tt.wantMsg)
		})
	}
}

func TestMatrix_MissingConfig(t *testing.T) {
	out, _, err := executeMatrix(t, testFolders, "--format", "json", "matrix", "--config", filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestMatrix_FlagErrorJSON(t *testing.T) {
	out, errOut, err := executeMatrix(t, testFolders, "--format", "json", "matrix", "-n", "abc")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, IsReported(err))
	assert.Empty(t, errOut)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, `invalid argument "abc"`)
}

func TestFlagName(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{`invalid argument "abc" for "-n, --strength" flag: strconv.ParseInt: parsing "abc": invalid syntax`, "strength"},
		{`invalid argument "x" for "-j, --jobs-per-stage" flag: strconv.ParseInt: parsing "x": invalid syntax`, "jobs-per-stage"},
		{"unknown flag: --stages", "stages"},
		{"unknown shorthand flag: 'q' in -q", "flags"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, flagName(errors.New(tt.msg)))
		})
	}
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"groups", ErrCodeCatalogGroups},
		{"groups.gnu.compilers[0].version", ErrCodeCatalogGroups},
		{"backends[2].version", ErrCodeCatalogBackends},
		{"rules.0.hosts", ErrCodeCatalogRules},
		{"boost_versions.0", ErrCodeCatalogBoost},
		{"images", ErrCodeCatalogRender},
		{"backend_settings.cuda", ErrCodeCatalogRender},
		{"cue", ErrCodeCatalog},
		{"catalog", ErrCodeCatalog},
		{"colour", ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field))
		})
	}
}
