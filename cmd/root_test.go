//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "import", "compare", "similar", "crops", "resolve", "drought", "serve"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestCropsCmd_Subcommands(t *testing.T) {
	var got []string
	for _, c := range cropsCmd.Commands() {
		got = append(got, c.Name())
	}
	assert.ElementsMatch(t, []string{
		"grown", "shared", "missing", "aptitude", "recommend", "best", "profile", "production", "producers",
	}, got)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	f := rootCmd.PersistentFlags().Lookup("data")
	require.NotNil(t, f)
	assert.Equal(t, "", f.DefValue)
}

func TestOutputFlags(t *testing.T) {
	for _, c := range []string{"similar", "resolve", "drought", "compare"} {
		cmd, _, err := rootCmd.Find([]string{c})
		require.NoError(t, err)
		f := cmd.Flags().Lookup("format")
		require.NotNil(t, f, c)
		assert.Equal(t, "table", f.DefValue)
		assert.NotNil(t, cmd.Flags().Lookup("output"), c)
	}
}

func TestServeCmd_PortFlag(t *testing.T) {
	f := serveCmd.Flags().Lookup("port")
	require.NotNil(t, f)
	assert.Equal(t, "0", f.DefValue)
}

func TestFetchLimiter(t *testing.T) {
	setupConfig(t)

	cfg.Fetch.RateLimitRPS = 0
	assert.Equal(t, rate.Inf, fetchLimiter().Limit())

	cfg.Fetch.RateLimitRPS = 2
	assert.Equal(t, rate.Limit(2), fetchLimiter().Limit())
}
