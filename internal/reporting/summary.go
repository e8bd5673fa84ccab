package reporting

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// WriteSummary печатает отчёт о запуске в человекочитаемом виде
func WriteSummary(w io.Writer, r *Report) error {
	mode := "УСТРОЙСТВА"
	if r.TestMode {
		mode = "ТЕСТОВЫЙ РЕЖИМ"
	}

	fmt.Fprintf(w, "Запуск %s (%s, %s)\n", r.RunID, r.Hostname, mode)
	fmt.Fprintf(w, "Начало: %s, длительность: %s, код выхода: %d\n",
		r.Timestamp.Format("2006-01-02 15:04:05"), r.Duration, r.ExitCode)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "УСТРОЙСТВО\tСТАТУС\tПРОХОДЫ\tЗАПИСАНО\tСКОРОСТЬ\tОШИБКИ")

	for _, d := range r.Devices {
		status := d.Status
		if d.SkipReason != nil {
			status += " (" + *d.SkipReason + ")"
		}

		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%.1f MB/s\t%d\n",
			d.Device, status, d.PassesCompleted, d.Passes,
			humanize.IBytes(d.BytesWritten), d.SpeedMBps, d.Errors)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	s := r.Summary
	_, err := fmt.Fprintf(w, "Итого: %d устройств, завершено %d, частично %d, пропущено %d, прервано %d, сбой %d; записано %s (%s байт), успешность %.1f%%\n",
		s.TotalDevices, s.Completed, s.Partial, s.Skipped, s.Aborted, s.Failed,
		humanize.IBytes(s.TotalBytes), humanize.Comma(int64(s.TotalBytes)), s.SuccessRate)

	return err
}

// WriteAggregatedSummary печатает сводку по нескольким запускам
func WriteAggregatedSummary(w io.Writer, agg *AggregatedReport) error {
	_, err := fmt.Fprintf(w, "Запусков: %d (тестовых %d), машин: %d, устройств: %d\nЗавершено %d, частично %d, пропущено %d, прервано %d, сбой %d\nЗаписано: %s, успешность %.1f%%\n",
		agg.TotalRuns, agg.TestRuns, agg.TotalMachines, agg.TotalDevices,
		agg.Summary.Completed, agg.Summary.Partial, agg.Summary.Skipped, agg.Summary.Aborted, agg.Summary.Failed,
		humanize.IBytes(agg.TotalBytes), agg.SuccessRate)

	return err
}
