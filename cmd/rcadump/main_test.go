package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeCommand(t *testing.T) {
	rootCmd.SetArgs([]string{"analyze", "testdata/measure.yaml"})
	require.NoError(t, rootCmd.Execute())
}

func TestCyclesCommand(t *testing.T) {
	rootCmd.SetArgs([]string{"cycles", "testdata/recurse.yaml"})
	require.NoError(t, rootCmd.Execute())
}

func TestAnalyzeMissingFile(t *testing.T) {
	rootCmd.SetArgs([]string{"analyze", "testdata/missing.yaml"})
	require.Error(t, rootCmd.Execute())
}
