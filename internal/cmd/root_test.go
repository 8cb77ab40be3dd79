package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "config")
}

func TestConfigCommandRegistersShow(t *testing.T) {
	names := make([]string, 0)
	for _, c := range configCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "show")
}

func TestRootCommandFlags(t *testing.T) {
	configFlag := rootCmd.PersistentFlags().Lookup("config")
	require := assert.New(t)
	require.NotNil(configFlag)
	require.Equal("", configFlag.DefValue)

	verboseFlag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(verboseFlag)
	require.Equal("false", verboseFlag.DefValue)
}
