package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "picci", cmd.Use)
	assert.Contains(t, cmd.Long, "PIConGPU")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"matrix", "check"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestMatrixCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	matrixCmd, _, err := cmd.Find([]string{"matrix"})
	require.NoError(t, err)

	strength := matrixCmd.Flags().Lookup("strength")
	require.NotNil(t, strength)
	assert.Equal(t, "n", strength.Shorthand)
	assert.Equal(t, "1", strength.DefValue)

	jobs := matrixCmd.Flags().Lookup("jobs-per-stage")
	require.NotNil(t, jobs)
	assert.Equal(t, "j", jobs.Shorthand)

	assert.NotNil(t, matrixCmd.Flags().Lookup("compact"))
	assert.NotNil(t, matrixCmd.Flags().Lookup("limit_boost_versions"))
	assert.NotNil(t, matrixCmd.Flags().Lookup("config"))
}

func TestCheckCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	checkCmd, _, err := cmd.Find([]string{"check"})
	require.NoError(t, err)

	for _, name := range []string{"data", "param", "json", "result"} {
		flag := checkCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "flag %s", name)
		assert.Empty(t, flag.DefValue)
	}
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "yaml", "matrix"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestNewLogger_Verbose(t *testing.T) {
	var buf bytes.Buffer

	newLogger(&RootOptions{}, &buf).Debug("hidden")
	assert.Empty(t, buf.String())

	newLogger(&RootOptions{Verbose: true}, &buf).Debug("shown", "jobs", 3)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "jobs=3")
}
