package system_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netnuke/internal/system"
)

func TestDiagnosticsSelfTestWipe(t *testing.T) {
	runner := system.NewSystemDiagnosticsRunner(system.DiagnosticsOptions{
		Test:      system.TestWipe,
		ScratchIn: t.TempDir(),
	}, nil)

	diag, err := runner.RunDiagnostics(context.Background())
	require.NoError(t, err)
	require.Len(t, diag.Results, 1)

	res := diag.Results[0]
	assert.Equal(t, system.TestWipe, res.Test)
	assert.Equal(t, system.StatusPass, res.Status, res.Message)
	assert.Equal(t, "HEALTHY", diag.Overall)
}

func TestDiagnosticsQuick(t *testing.T) {
	sysRoot := t.TempDir()

	writeSysfs(t, sysRoot, map[string]sysDisk{
		"sda": {sectors: 2048, rotational: "1"},
	})

	prober := fakeProber{results: map[string]system.ProbeResult{
		"/dev/sda": {Size: 2048 * 512, SectorSize: 512},
	}}

	runner := system.NewSystemDiagnosticsRunner(system.DiagnosticsOptions{
		Level:   system.LevelQuick,
		Catalog: system.NewCatalog(sysRoot, "/dev", prober, nil),
	}, nil)
	runner.SetGeteuid(func() int { return 1000 })

	diag, err := runner.RunDiagnostics(context.Background())
	require.NoError(t, err)
	require.Len(t, diag.Results, 3)

	byTest := map[system.DiagnosticTest]system.DiagnosticResult{}
	for _, r := range diag.Results {
		byTest[r.Test] = r
	}

	assert.Equal(t, system.StatusWarn, byTest[system.TestPermissions].Status)
	assert.Equal(t, system.StatusPass, byTest[system.TestDisks].Status)
	assert.Contains(t, byTest[system.TestDisks].Message, "пригодных 1")

	assert.Equal(t, 3, diag.Summary.TotalTests)
	assert.GreaterOrEqual(t, diag.Summary.Warnings, 1)
	assert.Zero(t, diag.Summary.Failed)
	assert.Equal(t, "WARNING", diag.Overall)
	assert.Equal(t, 1000, diag.Environment.EUID)
}

func TestDiagnosticsPaths(t *testing.T) {
	runner := system.NewSystemDiagnosticsRunner(system.DiagnosticsOptions{
		Test:      system.TestPaths,
		ScratchIn: t.TempDir(),
		ReportDir: filepath.Join(t.TempDir(), "missing"),
	}, nil)

	diag, err := runner.RunDiagnostics(context.Background())
	require.NoError(t, err)
	require.Len(t, diag.Results, 1)
	assert.Equal(t, system.StatusWarn, diag.Results[0].Status)
}

func TestDiagnosticsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := system.NewSystemDiagnosticsRunner(system.DiagnosticsOptions{Level: system.LevelFull}, nil)

	_, err := runner.RunDiagnostics(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSaveDiagnostics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.json")

	require.NoError(t, system.SaveDiagnostics(&system.SystemDiagnostics{Overall: "HEALTHY"}, path))
	assert.FileExists(t, path)
}
