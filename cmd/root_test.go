package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coherence-sim/coherence-sim/sim"
)

func resetFlags() {
	protocolFlag = "MESI"
	tracePrefix = ""
	cacheSize = 4096
	associativity = 2
	blockSize = 32
	chargeExclFlag = false
	detailed = false
	verifyDeterm = false
	scenarioFile = ""
}

func TestBuildConfig_ValidatesAndParsesProtocol(t *testing.T) {
	resetFlags()
	protocolFlag = "dragon"
	cacheSize, associativity, blockSize = 16, 2, 4

	cfg, _, err := buildConfig()
	require.NoError(t, err)
	assert.Equal(t, sim.ProtocolDragon, cfg.Protocol)
}

func TestBuildConfig_RejectsNonPowerOfTwoGeometry(t *testing.T) {
	resetFlags()
	cacheSize = 17 // not a power of two

	_, _, err := buildConfig()
	assert.Error(t, err)
}

func TestApplyPositionalArgs_OverlaysFlagsInOrder(t *testing.T) {
	resetFlags()
	applyPositionalArgs([]string{"Dragon", "traces/p", "16", "2", "4"})

	assert.Equal(t, "Dragon", protocolFlag)
	assert.Equal(t, "traces/p", tracePrefix)
	assert.Equal(t, 16, cacheSize)
	assert.Equal(t, 2, associativity)
	assert.Equal(t, 4, blockSize)
}

func TestResolveTraceFiles_DirectoryListsAllFilesSorted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.trace"), []byte("2 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0.trace"), []byte("2 1\n"), 0o644))

	files, err := resolveTraceFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Contains(t, files[0], "0.trace")
	assert.Contains(t, files[1], "1.trace")
}

func TestResolveTraceFiles_PrefixGlobsMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "p")
	require.NoError(t, os.WriteFile(prefix+"0.trace", []byte("2 1\n"), 0o644))
	require.NoError(t, os.WriteFile(prefix+"1.trace", []byte("2 1\n"), 0o644))

	files, err := resolveTraceFiles(prefix)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestRunOnce_EndToEnd_WritesReport(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0.trace"), []byte("2 3\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.trace"), []byte("2 3\n"), 0o644))

	protocolFlag = "MESI"
	tracePrefix = dir
	cacheSize, associativity, blockSize = 8, 2, 4

	out, err := os.CreateTemp(t.TempDir(), "report")
	require.NoError(t, err)
	defer out.Close()

	require.NoError(t, runOnce(out))

	data, err := os.ReadFile(out.Name())
	require.NoError(t, err)
	assert.Contains(t, string(data), "total cycles: 4")
}
