package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picongpu/picci/internal/matrix"
	"github.com/picongpu/picci/internal/render"
	"github.com/picongpu/picci/internal/stage"
)

func TestDefault(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	var names []string
	sizes := map[string]int{}
	for _, g := range cat.Groups {
		names = append(names, g.Name)
		sizes[g.Name] = len(g.Compilers)
	}
	assert.Equal(t, []string{"clang", "gnu", "clangCuda", "nvcc", "hipcc"}, names)
	assert.Equal(t, map[string]int{"clang": 8, "gnu": 6, "clangCuda": 8, "nvcc": 14, "hipcc": 8}, sizes)

	first := cat.Groups[0].Compilers[0]
	assert.Equal(t, "clang++", first.Host)
	assert.Equal(t, "5.0", first.Version)
	assert.Empty(t, first.Device)

	nvcc := cat.Groups[3].Compilers
	assert.Equal(t, "clang++", nvcc[0].Host)
	assert.Equal(t, "g++", nvcc[8].Host)
	assert.Equal(t, "nvcc", nvcc[8].Device)

	require.Len(t, cat.Backends, 10)
	assert.Equal(t, "hip4.2", cat.Backends[0].Label())
	assert.Equal(t, "serial", cat.Backends[9].Label())

	assert.Len(t, cat.BoostVersions, 11)
	assert.Equal(t, "1.65.1", cat.BoostVersions[0])

	assert.Equal(t, ".base_clangCuda", cat.Render.Images["clang++_clangCuda"])
	assert.Equal(t, []string{"pmacc"}, cat.Render.RunFolders)
	assert.True(t, cat.Render.Backends["cuda"].StripVersionDots)
	assert.Len(t, cat.Render.Backends["hip"].BeforeScript, 1)
	assert.Empty(t, cat.Render.Backends["hip"].ImageSuffix)
	assert.Len(t, cat.Render.BeforeScript, 2)
}

func TestDefault_RulesMatchBuiltin(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	if diff := cmp.Diff(matrix.DefaultRules(), cat.Rules); diff != "" {
		t.Errorf("catalog rules differ from built-in table (-builtin +catalog):\n%s", diff)
	}
}

func TestSpace_LimitBoost(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	s := cat.Space([]string{"pmacc"}, true)
	assert.Equal(t, []string{"1.65.1", "1.67.0", "1.69.0", "1.71.0", "1.73.0", "1.75.0"}, s.Boost)

	s = cat.Space([]string{"pmacc"}, false)
	assert.Len(t, s.Boost, 11)
}

// The default catalog must yield sound, complete and renderable matrices.
func TestDefault_Matrix(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	folders := []string{"pmacc", "share/picongpu/examples/KelvinHelmholtz", "share/picongpu/tests/compileParticles"}
	r := render.NewRenderer(cat.Render)

	for _, strength := range []int{1, 2} {
		s := cat.Space(folders, true)
		jobs, err := s.Generate(context.Background(), strength)
		require.NoError(t, err)
		require.NotEmpty(t, jobs)

		pairs := map[string]bool{}
		for _, j := range jobs {
			require.True(t, cat.Rules.Allow(j.Compiler, j.Backend), "strength %d: invalid job %s", strength, j)
			pairs[j.Compiler.String()+"|"+j.Backend.String()] = true
		}

		if strength == 2 {
			for _, g := range cat.Groups {
				for _, c := range g.Compilers {
					for _, b := range cat.Backends {
						if cat.Rules.Allow(c, b) {
							assert.True(t, pairs[c.String()+"|"+b.String()], "missing pair %s with %s", c, b)
						}
					}
				}
			}
		}

		stages, err := stage.Partition(jobs, 10)
		require.NoError(t, err)
		descs, err := r.RenderStages(stages)
		require.NoError(t, err)
		assert.Len(t, descs, len(jobs))
	}
}

func TestDefault_StrengthOneCoversEveryGroup(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	jobs, err := cat.Space([]string{"pmacc"}, false).Generate(context.Background(), 1)
	require.NoError(t, err)

	devices := map[string]bool{}
	boosts := map[string]bool{}
	for _, j := range jobs {
		devices[j.Compiler.Host+"/"+j.Compiler.Device] = true
		boosts[j.Boost] = true
	}

	for _, key := range []string{"clang++/", "g++/", "clang++/clangCuda", "g++/nvcc", "clang++/hipcc"} {
		assert.True(t, devices[key], "no job for %s", key)
	}
	assert.Len(t, boosts, 11)

	// clang++ with nvcc is never valid and must not appear
	assert.False(t, devices["clang++/nvcc"])
}

func writeCatalog(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

const minimalCatalog = `
groups: [{name: "gnu", compilers: [{host: "g++", version: "9"}]}]
backends: [{kind: "serial"}]
boost_versions: ["1.75.0"]
rules: []
images: {"g++": ".base_gcc"}
backend_settings: {}
before_script: []
run_folders: []
`

func TestLoad(t *testing.T) {
	cat, err := Load(writeCatalog(t, minimalCatalog))
	require.NoError(t, err)

	require.Len(t, cat.Groups, 1)
	assert.Equal(t, "g++-9", cat.Groups[0].Compilers[0].Name())
	assert.Empty(t, cat.Rules)
	assert.Equal(t, ".base_gcc", cat.Render.Images["g++"])
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
		wantPos bool
	}{
		{
			name:    "bad version",
			src:     strings.Replace(minimalCatalog, `version: "9"`, `version: "nine"`, 1),
			wantMsg: "not numeric",
			wantPos: true,
		},
		{
			name:    "unknown field",
			src:     minimalCatalog + "colour: \"red\"\n",
			wantMsg: "colour",
		},
		{
			name:    "wrong type",
			src:     strings.Replace(minimalCatalog, `boost_versions: ["1.75.0"]`, `boost_versions: [1]`, 1),
			wantPos: true,
		},
		{
			name:    "empty groups",
			src:     strings.Replace(minimalCatalog, `groups: [{name: "gnu", compilers: [{host: "g++", version: "9"}]}]`, `groups: []`, 1),
		},
		{
			name:    "syntax error",
			src:     "groups: [",
			wantPos: true,
		},
		{
			name: "duplicate group",
			src: strings.Replace(minimalCatalog,
				`groups: [{name: "gnu", compilers: [{host: "g++", version: "9"}]}]`,
				`groups: [{name: "gnu", compilers: []}, {name: "gnu", compilers: []}]`, 1),
			wantMsg: "duplicate group",
			wantPos: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCatalog(t, tt.src)

			_, err := Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, matrix.ErrConfiguration)
			assert.True(t, IsCompileError(err))

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			if tt.wantMsg != "" {
				assert.Contains(t, ce.Field+" "+ce.Message, tt.wantMsg)
			}
			if tt.wantPos {
				assert.True(t, ce.Pos.IsValid(), "expected a position in %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.ErrorIs(t, err, matrix.ErrConfiguration)
}
