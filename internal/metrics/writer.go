package metrics

// Metrics output (CSV) and summary formatting

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"time"
)

// Writer appends round-trip records to a CSV file.
type Writer struct {
	csvFile   *os.File
	csvWriter *csv.Writer
}

// NewWriter creates a new metrics writer
func NewWriter(csvPath string) (*Writer, error) {
	w := &Writer{}

	if csvPath != "" {
		file, err := os.Create(csvPath)
		if err != nil {
			return nil, fmt.Errorf("create CSV file: %w", err)
		}
		w.csvFile = file
		w.csvWriter = csv.NewWriter(file)

		header := []string{
			"timestamp",
			"command",
			"success",
			"rtt_ms",
			"rssi_dbm",
			"retries",
			"error",
		}
		if err := w.csvWriter.Write(header); err != nil {
			file.Close()
			return nil, fmt.Errorf("write CSV header: %w", err)
		}
		w.csvWriter.Flush()
	}

	return w, nil
}

// WriteMetric writes a single metric
func (w *Writer) WriteMetric(m Metric) error {
	if w.csvWriter == nil {
		return nil
	}
	record := []string{
		m.Timestamp.Format(time.RFC3339Nano),
		m.Command,
		fmt.Sprintf("%t", m.Success),
		formatRTT(m.RTTMs),
		formatRSSI(m.RSSIdBm),
		fmt.Sprintf("%d", m.Retries),
		m.Error,
	}
	if err := w.csvWriter.Write(record); err != nil {
		return fmt.Errorf("write CSV record: %w", err)
	}
	w.csvWriter.Flush()
	return nil
}

// Close closes the writer and flushes all data
func (w *Writer) Close() error {
	if w.csvWriter != nil {
		w.csvWriter.Flush()
	}
	if w.csvFile != nil {
		return w.csvFile.Close()
	}
	return nil
}

// formatRTT formats RTT value for CSV (empty string if 0)
func formatRTT(rtt float64) string {
	if rtt == 0 {
		return ""
	}
	return fmt.Sprintf("%.3f", rtt)
}

func formatRSSI(dbm int) string {
	if dbm == 0 {
		return ""
	}
	return fmt.Sprintf("%d", dbm)
}

// FormatSummary formats a summary for human-readable output
func FormatSummary(summary *Summary) string {
	var buf string

	if summary.TotalRoundTrips == 0 {
		return "No round trips recorded\n"
	}

	buf += fmt.Sprintf("Total Round Trips: %d\n", summary.TotalRoundTrips)
	buf += fmt.Sprintf("Successful: %d (%.1f%%)\n",
		summary.SuccessfulOps,
		float64(summary.SuccessfulOps)/float64(summary.TotalRoundTrips)*100)
	buf += fmt.Sprintf("Failed: %d (%.1f%%)\n",
		summary.FailedOps,
		float64(summary.FailedOps)/float64(summary.TotalRoundTrips)*100)

	if summary.TimeoutCount > 0 {
		buf += fmt.Sprintf("Timeouts: %d\n", summary.TimeoutCount)
	}

	if summary.SuccessfulOps > 0 {
		buf += fmt.Sprintf("\nRTT Statistics:\n")
		buf += fmt.Sprintf("  Min: %.3f ms\n", summary.MinRTT)
		buf += fmt.Sprintf("  Max: %.3f ms\n", summary.MaxRTT)
		buf += fmt.Sprintf("  Avg: %.3f ms\n", summary.AvgRTT)
		if summary.P50RTT > 0 || summary.P99RTT > 0 {
			buf += fmt.Sprintf("  P50: %.3f ms\n", summary.P50RTT)
			buf += fmt.Sprintf("  P90: %.3f ms\n", summary.P90RTT)
			buf += fmt.Sprintf("  P95: %.3f ms\n", summary.P95RTT)
			buf += fmt.Sprintf("  P99: %.3f ms\n", summary.P99RTT)
		}
		if len(summary.RTTBuckets) > 0 {
			buf += fmt.Sprintf("  Buckets: <10ms=%d 10-100ms=%d 100-500ms=%d 500-1000ms=%d 1-5s=%d >5s=%d\n",
				summary.RTTBuckets["lt_10ms"],
				summary.RTTBuckets["10_100ms"],
				summary.RTTBuckets["100_500ms"],
				summary.RTTBuckets["500_1000ms"],
				summary.RTTBuckets["1_5s"],
				summary.RTTBuckets["gt_5s"],
			)
		}
	}

	if summary.MinRSSI != 0 || summary.MaxRSSI != 0 {
		buf += fmt.Sprintf("\nRSSI Range: %d to %d dBm\n", summary.MinRSSI, summary.MaxRSSI)
	}

	if len(summary.RTTByCommand) > 0 {
		buf += fmt.Sprintf("\nPer-Command Statistics:\n")
		commands := make([]string, 0, len(summary.RTTByCommand))
		for cmd := range summary.RTTByCommand {
			commands = append(commands, cmd)
		}
		sort.Strings(commands)
		for _, cmd := range commands {
			stats := summary.RTTByCommand[cmd]
			buf += fmt.Sprintf("  %s: %d ops (%d success, %d failed)",
				cmd, stats.Count, stats.Success, stats.Failed)
			if stats.Success > 0 {
				buf += fmt.Sprintf(" - RTT: min=%.3fms, max=%.3fms, avg=%.3fms",
					stats.MinRTT, stats.MaxRTT, stats.AvgRTT)
			}
			buf += "\n"
		}
	}

	return buf
}
