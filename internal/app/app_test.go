package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"netnuke/internal/config"
	"netnuke/internal/logging"
	"netnuke/internal/metrics"
	"netnuke/internal/reporting"
	"netnuke/internal/security"
	"netnuke/internal/system"
	"netnuke/internal/wipe"
)

type fakeCatalog struct {
	disks    []system.DiskInfo
	legacy   []system.DiskInfo
	stats    system.Stats
	resolved []string
	probed   int
}

func (c *fakeCatalog) List(context.Context) ([]system.DiskInfo, error) {
	return c.disks, nil
}

func (c *fakeCatalog) ScanLegacy(context.Context) ([]system.DiskInfo, system.Stats, error) {
	return c.legacy, c.stats, nil
}

func (c *fakeCatalog) Resolve(_ context.Context, paths []string) ([]system.DiskInfo, error) {
	c.resolved = paths

	var out []system.DiskInfo
	for _, d := range c.disks {
		for _, p := range paths {
			if d.Path == p {
				out = append(out, d)
			}
		}
	}

	return out, nil
}

func (c *fakeCatalog) ProbeSignatures(disks []system.DiskInfo) {
	c.probed += len(disks)
}

type fakeConsole struct {
	confirm   bool
	confirmed [][]system.DiskInfo
	results   []*wipe.Report
	stats     *system.Stats
	warnings  []string
	notices   []string
	events    []wipe.Event
}

func (c *fakeConsole) OnProgress(wipe.ProgressEvent) {}

func (c *fakeConsole) OnEvent(ev wipe.Event) { c.events = append(c.events, ev) }

func (c *fakeConsole) Confirm(disks []system.DiskInfo) (bool, error) {
	c.confirmed = append(c.confirmed, disks)
	return c.confirm, nil
}

func (c *fakeConsole) PrintSettings(wipe.Config) {}

func (c *fakeConsole) PrintStats(stats system.Stats) { c.stats = &stats }

func (c *fakeConsole) PrintDevices([]system.DiskInfo) {}

func (c *fakeConsole) PrintResults(reports []*wipe.Report) { c.results = reports }

func (c *fakeConsole) Notice(format string, _ ...interface{}) { c.notices = append(c.notices, format) }

func (c *fakeConsole) Warn(format string, _ ...interface{}) { c.warnings = append(c.warnings, format) }

type fixture struct {
	app     *App
	cfg     *config.Config
	catalog *fakeCatalog
	console *fakeConsole
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()

	cfg := config.Default()
	cfg.Wipe.NukeLevel = "zero"
	cfg.Wipe.BlockSize = 4096
	cfg.Wipe.TestTarget = filepath.Join(dir, "scratch")
	cfg.Wipe.TestSize = 64 * 1024
	cfg.Reporting.LocalPath = filepath.Join(dir, "reports")
	cfg.Metrics.Textfile = filepath.Join(dir, "netnuke.prom")

	logger := logging.NewFromZap(zaptest.NewLogger(t), "DEBUG")
	collector := metrics.New("test")
	engine := wipe.NewWipeEngine(logger, wipe.WithRecorder(collector))

	f := &fixture{
		cfg:     cfg,
		catalog: &fakeCatalog{},
		console: &fakeConsole{confirm: true},
		dir:     dir,
	}

	f.app = NewAppWithDependencies(logger, cfg, engine, f.catalog, f.console, collector)
	f.app.mounts = func(context.Context) (map[string]string, error) { return map[string]string{}, nil }

	return f
}

// scratchDevice обычный файл, изображающий устройство
func (f *fixture) scratchDevice(t *testing.T, name string, size int) system.DiskInfo {
	t.Helper()

	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0xEE}, size), 0o600))

	return system.DiskInfo{Path: path, Name: name, Size: uint64(size), Usable: true}
}

func TestWipeTestModeWithoutDevices(t *testing.T) {
	f := newFixture(t)

	result, err := f.app.Wipe(context.Background(), nil, &wipe.Signals{})
	require.NoError(t, err)

	assert.Equal(t, ExitSuccess, result.ExitCode)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, TestModeDevice, result.Reports[0].Device)
	assert.Equal(t, wipe.StatusCompleted, result.Reports[0].Status)

	data, err := os.ReadFile(f.cfg.Wipe.TestTarget)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 64*1024), data)

	// в тестовом режиме подтверждение не спрашивается
	assert.Empty(t, f.console.confirmed)
	assert.Zero(t, f.catalog.probed)

	require.NotEmpty(t, result.ReportPath)
	saved, err := reporting.LoadReport(result.ReportPath)
	require.NoError(t, err)
	assert.True(t, saved.TestMode)
	assert.Equal(t, ExitSuccess, saved.ExitCode)

	prom, err := os.ReadFile(f.cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "netnuke_bytes_written_total")
}

func TestWipeTestModeKeepsCatalogDevices(t *testing.T) {
	f := newFixture(t)
	f.cfg.Security.ExcludedDevices = []string{"sdb"}
	f.catalog.disks = []system.DiskInfo{
		{Path: "/dev/sda", Name: "sda", Size: 1 << 30},
		{Path: "/dev/sdb", Name: "sdb", Size: 1 << 30, Usable: true},
	}

	result, err := f.app.Wipe(context.Background(), nil, &wipe.Signals{})
	require.NoError(t, err)

	// sda непригоден, но в тестовом режиме пишется только scratch-файл
	require.Len(t, result.Reports, 1)
	assert.Equal(t, "/dev/sda", result.Reports[0].Device)
	assert.Equal(t, f.cfg.Wipe.TestTarget, result.Reports[0].Target)

	require.NotNil(t, result.Report)
	assert.Equal(t, 1, result.Report.Summary.Skipped)
}

func TestWipeRealDevices(t *testing.T) {
	f := newFixture(t)
	f.cfg.Wipe.TestMode = false
	f.cfg.Security.RequireRoot = false

	disk0 := f.scratchDevice(t, "disk0", 32*1024)
	disk1 := f.scratchDevice(t, "disk1", 16*1024)
	f.catalog.disks = []system.DiskInfo{disk0, disk1}

	result, err := f.app.Wipe(context.Background(), nil, &wipe.Signals{})
	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, result.ExitCode)
	require.Len(t, result.Reports, 2)

	for _, d := range []system.DiskInfo{disk0, disk1} {
		data, err := os.ReadFile(d.Path)
		require.NoError(t, err)
		assert.Equal(t, make([]byte, d.Size), data, d.Path)
	}

	require.Len(t, f.console.confirmed, 1)
	assert.Len(t, f.console.confirmed[0], 2)
	assert.Equal(t, 2, f.catalog.probed)
	assert.Equal(t, result.Reports, f.console.results)
}

func TestWipeExplicitDevices(t *testing.T) {
	f := newFixture(t)
	f.cfg.Wipe.TestMode = false
	f.cfg.Security.RequireRoot = false

	disk0 := f.scratchDevice(t, "disk0", 8*1024)
	disk1 := f.scratchDevice(t, "disk1", 8*1024)
	f.catalog.disks = []system.DiskInfo{disk0, disk1}

	result, err := f.app.Wipe(context.Background(), []string{disk1.Path}, &wipe.Signals{})
	require.NoError(t, err)
	assert.Equal(t, []string{disk1.Path}, f.catalog.resolved)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, disk1.Path, result.Reports[0].Device)

	untouched, err := os.ReadFile(disk0.Path)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xEE}, 8*1024), untouched)
}

func TestWipeNotConfirmed(t *testing.T) {
	f := newFixture(t)
	f.cfg.Wipe.TestMode = false
	f.cfg.Security.RequireRoot = false
	f.console.confirm = false

	disk0 := f.scratchDevice(t, "disk0", 8*1024)
	f.catalog.disks = []system.DiskInfo{disk0}

	result, err := f.app.Wipe(context.Background(), nil, &wipe.Signals{})
	require.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, ExitErrors, result.ExitCode)
	assert.Empty(t, result.Reports)

	data, err := os.ReadFile(disk0.Path)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xEE}, 8*1024), data)
}

func TestWipeForceSkipsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.cfg.Wipe.TestMode = false
	f.cfg.Security.RequireRoot = false
	f.console.confirm = false
	f.app.Force = true

	f.catalog.disks = []system.DiskInfo{f.scratchDevice(t, "disk0", 8*1024)}

	result, err := f.app.Wipe(context.Background(), nil, &wipe.Signals{})
	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, result.ExitCode)
	assert.Empty(t, f.console.confirmed)
}

func TestWipeSkipsMountedDevices(t *testing.T) {
	f := newFixture(t)
	f.cfg.Wipe.TestMode = false
	f.cfg.Security.RequireRoot = false

	disk0 := f.scratchDevice(t, "disk0", 8*1024)
	f.catalog.disks = []system.DiskInfo{disk0}
	f.app.mounts = func(context.Context) (map[string]string, error) {
		return map[string]string{disk0.Path: "/"}, nil
	}

	result, err := f.app.Wipe(context.Background(), nil, &wipe.Signals{})
	require.ErrorIs(t, err, wipe.ErrNoDevices)
	assert.Equal(t, ExitErrors, result.ExitCode)
	require.NotEmpty(t, f.console.warnings)
}

func TestWipeMountDetectionFailure(t *testing.T) {
	f := newFixture(t)
	f.cfg.Wipe.TestMode = false
	f.cfg.Security.RequireRoot = false
	f.catalog.disks = []system.DiskInfo{f.scratchDevice(t, "disk0", 8*1024)}

	mountErr := errors.New("no /proc")
	f.app.mounts = func(context.Context) (map[string]string, error) { return nil, mountErr }

	_, err := f.app.Wipe(context.Background(), nil, &wipe.Signals{})
	require.ErrorIs(t, err, mountErr)
}

func TestWipeRequiresRoot(t *testing.T) {
	f := newFixture(t)
	f.cfg.Wipe.TestMode = false
	f.cfg.Security.RequireRoot = true

	if security.IsRoot() {
		t.Skip("running as root")
	}

	result, err := f.app.Wipe(context.Background(), nil, &wipe.Signals{})
	require.ErrorIs(t, err, security.ErrNotRoot)
	assert.Equal(t, ExitNotRoot, result.ExitCode)
}

func TestWipeAborted(t *testing.T) {
	f := newFixture(t)

	signals := &wipe.Signals{}
	signals.Abort()

	result, err := f.app.Wipe(context.Background(), nil, signals)
	require.NoError(t, err)
	assert.Equal(t, ExitAborted, result.ExitCode)

	require.NotNil(t, result.Report)
	assert.Equal(t, ExitAborted, result.Report.ExitCode)
}

func TestWipeInvalidConfig(t *testing.T) {
	f := newFixture(t)
	f.cfg.Wipe.NukeLevel = "shred"

	result, err := f.app.Wipe(context.Background(), nil, &wipe.Signals{})
	require.ErrorIs(t, err, wipe.ErrConfigInvalid)
	assert.Equal(t, ExitErrors, result.ExitCode)

	assert.NoFileExists(t, f.cfg.Wipe.TestTarget)
}

func TestWipeNormalizesRewriteLevel(t *testing.T) {
	f := newFixture(t)
	f.cfg.Wipe.NukeLevel = "4"
	f.cfg.Wipe.Passes = 0

	result, err := f.app.Wipe(context.Background(), nil, &wipe.Signals{})
	require.NoError(t, err)
	assert.Len(t, f.console.warnings, 2)
	assert.Equal(t, wipe.LevelStaticPattern, result.Reports[0].Level)
	assert.Equal(t, 1, result.Reports[0].Passes)
}

func TestWipeLegacyCatalogPrintsStats(t *testing.T) {
	f := newFixture(t)
	f.cfg.Catalog.Source = config.CatalogLegacy
	f.catalog.stats = system.Stats{IDE: 1, SCSI: 2, Total: 3}

	_, err := f.app.Wipe(context.Background(), nil, &wipe.Signals{})
	require.NoError(t, err)
	require.NotNil(t, f.console.stats)
	assert.Equal(t, 3, f.console.stats.Total)
}

func TestReports(t *testing.T) {
	f := newFixture(t)

	for range 2 {
		_, err := f.app.Wipe(context.Background(), nil, &wipe.Signals{})
		require.NoError(t, err)
	}

	agg, err := f.app.Reports("")
	require.NoError(t, err)
	assert.Equal(t, 2, agg.TotalRuns)
	assert.Equal(t, 2, agg.TestRuns)
}

func TestInteractiveDryRun(t *testing.T) {
	f := newFixture(t)

	var out strings.Builder
	menu := NewInteractiveMenu(f.app, &out, &wipe.Signals{})

	answers := []string{menuDryRun, "standard", menuExit}
	menu.ask = func(_ survey.Prompt, response interface{}, _ ...survey.AskOpt) error {
		*(response.(*string)) = answers[0]
		answers = answers[1:]
		return nil
	}

	code, err := menu.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, code)
	assert.Empty(t, answers)

	assert.Equal(t, "standard", f.app.Profile)
	assert.Equal(t, "pattern", f.cfg.Wipe.NukeLevel)
	assert.Contains(t, out.String(), "Тестовый запуск завершён")

	data, err := os.ReadFile(f.cfg.Wipe.TestTarget)
	require.NoError(t, err)
	assert.Len(t, data, 64*1024)
	assert.NotEqual(t, make([]byte, 64*1024), data)
}

func TestInteractiveWipeSelectedDevice(t *testing.T) {
	f := newFixture(t)
	f.cfg.Security.RequireRoot = false

	disk0 := f.scratchDevice(t, "disk0", 8*1024)
	disk1 := f.scratchDevice(t, "disk1", 8*1024)
	f.catalog.disks = []system.DiskInfo{disk0, disk1}

	menu := NewInteractiveMenu(f.app, &strings.Builder{}, &wipe.Signals{})

	step := 0
	menu.ask = func(p survey.Prompt, response interface{}, _ ...survey.AskOpt) error {
		step++

		switch r := response.(type) {
		case *[]string:
			opts := p.(*survey.MultiSelect).Options
			require.Len(t, opts, 2)
			*r = []string{opts[1]}
		case *string:
			switch step {
			case 1:
				*r = menuWipe
			case 3:
				*r = profileNone
			default:
				*r = menuExit
			}
		}

		return nil
	}

	code, err := menu.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{disk1.Path}, f.catalog.resolved)

	data, err := os.ReadFile(disk1.Path)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8*1024), data)

	untouched, err := os.ReadFile(disk0.Path)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xEE}, 8*1024), untouched)
}
