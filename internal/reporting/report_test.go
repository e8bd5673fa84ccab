package reporting_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netnuke/internal/config"
	"netnuke/internal/reporting"
	"netnuke/internal/system"
	"netnuke/internal/wipe"
)

func sampleInput(t *testing.T) reporting.RunInput {
	t.Helper()

	start := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	cfg := config.Default()
	cfg.Reporting.LocalPath = t.TempDir()

	return reporting.RunInput{
		Config:  cfg,
		Profile: "standard",
		Disks: []system.DiskInfo{
			{Path: "/dev/sda", Model: "WDC", Serial: "WD-1", Signature: "gpt"},
		},
		Results: []*wipe.Report{
			{
				Device:          "/dev/sda",
				Target:          "/tmp/netnuke-testmode.img",
				TargetSize:      100 << 20,
				Level:           wipe.LevelZero,
				Passes:          1,
				PassesCompleted: 1,
				BlockSize:       512,
				BytesWritten:    100 << 20,
				Status:          wipe.StatusCompleted,
				FullyWiped:      true,
				StartTime:       start,
				EndTime:         start.Add(10 * time.Second),
				Duration:        10 * time.Second,
			},
			{
				Device:       "/dev/sdb",
				Level:        wipe.LevelZero,
				Passes:       1,
				BytesWritten: 4096,
				Status:       wipe.StatusPartial,
				Events: []wipe.Event{
					{Kind: wipe.EventBadRegionSkipped, Class: wipe.ClassMediumError, Offset: 4096},
				},
				Duration: time.Second,
			},
		},
		Skipped: []reporting.SkippedDevice{
			{Disk: system.DiskInfo{Path: "/dev/sdc", Model: "Mounted"}, Reason: "устройство смонтировано в /"},
		},
		StartTime: start,
		EndTime:   start.Add(time.Minute),
		ExitCode:  1,
	}
}

func TestGenerateReport(t *testing.T) {
	report, err := reporting.GenerateReport(sampleInput(t))
	require.NoError(t, err)

	_, err = uuid.Parse(report.RunID)
	require.NoError(t, err)

	assert.Equal(t, reporting.Version, report.Version)
	assert.NotEmpty(t, report.Hostname)
	assert.True(t, report.TestMode)
	assert.Equal(t, "1m0s", report.Duration)
	require.Len(t, report.Devices, 3)

	sda := report.Devices[0]
	require.NotNil(t, sda.Model)
	assert.Equal(t, "WDC", *sda.Model)
	require.NotNil(t, sda.Signature)
	assert.Equal(t, "zero", sda.Level)
	assert.InDelta(t, 10.0, sda.SpeedMBps, 1e-9)
	require.NotNil(t, sda.StartTime)

	sdb := report.Devices[1]
	assert.Nil(t, sdb.Model)
	assert.Nil(t, sdb.StartTime)
	assert.Equal(t, 1, sdb.Errors)

	sdc := report.Devices[2]
	assert.Equal(t, "SKIPPED", sdc.Status)
	require.NotNil(t, sdc.SkipReason)

	s := report.Summary
	assert.Equal(t, 3, s.TotalDevices)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, s.Partial)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Errors)
	assert.EqualValues(t, 100<<20+4096, s.TotalBytes)
	assert.InDelta(t, (10.0+4096.0/(1024*1024))/2, s.AverageSpeed, 1e-9)
	assert.InDelta(t, 100.0/3, s.SuccessRate, 1e-9)
}

func TestGenerateReportRequiresConfig(t *testing.T) {
	_, err := reporting.GenerateReport(reporting.RunInput{})
	assert.Error(t, err)
}

func TestSaveAndLoadReports(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "zstd"
		}

		t.Run(name, func(t *testing.T) {
			in := sampleInput(t)
			in.Config.Reporting.Compress = compress

			report, err := reporting.GenerateReport(in)
			require.NoError(t, err)

			path, err := reporting.SaveReport(report, in.Config)
			require.NoError(t, err)
			assert.Equal(t, compress, strings.HasSuffix(path, ".json.zst"))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, !compress, bytes.HasPrefix(raw, []byte("{")))

			// посторонние файлы в каталоге игнорируются
			require.NoError(t, os.WriteFile(filepath.Join(in.Config.Reporting.LocalPath, "notes.txt"), []byte("x"), 0o644))

			loaded, err := reporting.LoadReports(in.Config.Reporting.LocalPath)
			require.NoError(t, err)
			require.Len(t, loaded, 1)

			assert.Equal(t, report.RunID, loaded[0].RunID)
			assert.Equal(t, report.Summary, loaded[0].Summary)
			assert.Len(t, loaded[0].Devices, 3)
			assert.Equal(t, wipe.EventBadRegionSkipped, loaded[0].Devices[1].Events[0].Kind)
		})
	}
}

func TestSaveReportDisabled(t *testing.T) {
	in := sampleInput(t)
	in.Config.Reporting.Enabled = false

	report, err := reporting.GenerateReport(in)
	require.NoError(t, err)

	path, err := reporting.SaveReport(report, in.Config)
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := os.ReadDir(in.Config.Reporting.LocalPath)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAggregateReports(t *testing.T) {
	first, err := reporting.GenerateReport(sampleInput(t))
	require.NoError(t, err)

	second := *first
	second.Hostname = "other-host"
	second.TestMode = false

	agg := reporting.AggregateReports([]reporting.Report{*first, second})

	assert.Equal(t, 2, agg.TotalRuns)
	assert.Equal(t, 1, agg.TestRuns)
	assert.Equal(t, 2, agg.TotalMachines)
	assert.Equal(t, 6, agg.TotalDevices)
	assert.Equal(t, 2, agg.Summary.Completed)
	assert.InDelta(t, 100.0/3, agg.SuccessRate, 1e-9)

	assert.Zero(t, reporting.AggregateReports(nil).SuccessRate)
}

func TestWriteSummary(t *testing.T) {
	report, err := reporting.GenerateReport(sampleInput(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, reporting.WriteSummary(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "ТЕСТОВЫЙ РЕЖИМ")
	assert.Contains(t, out, "/dev/sda")
	assert.Contains(t, out, "100 MiB")
	assert.Contains(t, out, "104,861,696")
	assert.Contains(t, out, "устройство смонтировано в /")
}
