//go:build !integration

package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/locations-cli/internal/config"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"locate", "sample", "cities"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "locations-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "log-level", "log-format"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "root should have --%s flag", name)
	}
}

func TestApplyLogFlags(t *testing.T) {
	root := &cobra.Command{Use: "locations-cli"}
	root.PersistentFlags().String("log-level", "", "")
	root.PersistentFlags().String("log-format", "", "")
	child := &cobra.Command{Use: "cities", Run: func(*cobra.Command, []string) {}}
	root.AddCommand(child)
	root.SetArgs([]string{"cities", "--log-level", "DEBUG"})
	require.NoError(t, root.Execute())

	c := &config.Config{Log: config.LogConfig{Level: "info", Format: "json"}}
	applyLogFlags(child, c)

	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "json", c.Log.Format, "unset flag keeps config value")
}

func TestLocateCommand_Flags(t *testing.T) {
	for _, name := range []string{
		"cities", "state", "has-header", "companies", "sample-csv", "limit-cities",
		"output", "format", "concurrency", "fuzzy-strategy", "fuzzy-threshold", "stop-on-mismatch",
	} {
		assert.NotNil(t, locateCmd.Flags().Lookup(name), "locate should have --%s flag", name)
	}

	flag := locateCmd.Flags().Lookup("has-header")
	require.NotNil(t, flag)
	assert.Equal(t, "true", flag.DefValue)
}

func TestSampleCommand_Flags(t *testing.T) {
	for _, name := range []string{"csv", "size", "country", "sector", "stop-words", "seed"} {
		assert.NotNil(t, sampleCmd.Flags().Lookup(name), "sample should have --%s flag", name)
	}
}

func TestCitiesCommand_Flags(t *testing.T) {
	for _, name := range []string{"cities", "state", "has-header"} {
		assert.NotNil(t, citiesCmd.Flags().Lookup(name), "cities should have --%s flag", name)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, []string{`"acme corp"`, "a&b"}))
	assert.Equal(t, "[\n  \"\\\"acme corp\\\"\",\n  \"a&b\"\n]\n", buf.String())
}
