package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSinkSummary(t *testing.T) {
	s := NewSink()
	s.Record(Metric{Timestamp: time.Now(), Command: "SET_DIRECTION", Success: true, RTTMs: 180, RSSIdBm: -92})
	s.Record(Metric{Timestamp: time.Now(), Command: "SET_DIRECTION", Success: true, RTTMs: 220, RSSIdBm: -97})
	s.Record(Metric{Timestamp: time.Now(), Command: "QUERY_POWER", Success: false, Error: "no acknowledgment from peer"})

	sum := s.GetSummary()
	if sum.TotalRoundTrips != 3 {
		t.Errorf("TotalRoundTrips = %d, want 3", sum.TotalRoundTrips)
	}
	if sum.SuccessfulOps != 2 || sum.FailedOps != 1 {
		t.Errorf("success/failed = %d/%d, want 2/1", sum.SuccessfulOps, sum.FailedOps)
	}
	if sum.TimeoutCount != 1 {
		t.Errorf("TimeoutCount = %d, want 1", sum.TimeoutCount)
	}
	if sum.MinRTT != 180 || sum.MaxRTT != 220 {
		t.Errorf("rtt min/max = %v/%v, want 180/220", sum.MinRTT, sum.MaxRTT)
	}
	if sum.AvgRTT != 200 {
		t.Errorf("AvgRTT = %v, want 200", sum.AvgRTT)
	}
	if sum.MinRSSI != -97 || sum.MaxRSSI != -92 {
		t.Errorf("rssi min/max = %d/%d, want -97/-92", sum.MinRSSI, sum.MaxRSSI)
	}
	if sum.RTTBuckets["100_500ms"] != 2 {
		t.Errorf("bucket 100_500ms = %d, want 2", sum.RTTBuckets["100_500ms"])
	}

	cs := sum.RTTByCommand["SET_DIRECTION"]
	if cs == nil || cs.Count != 2 || cs.Success != 2 {
		t.Fatalf("SET_DIRECTION stats = %+v, want 2 successes", cs)
	}
}

func TestWriterCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "link.csv")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	err = w.WriteMetric(Metric{
		Timestamp: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		Command:   "QUERY_POSITION",
		Success:   true,
		RTTMs:     412.5,
		RSSIdBm:   -101,
	})
	if err != nil {
		t.Fatalf("WriteMetric: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, "timestamp,command,success,rtt_ms,rssi_dbm,retries,error") {
		t.Errorf("missing header in %q", got)
	}
	if !strings.Contains(got, "QUERY_POSITION,true,412.500,-101,0,") {
		t.Errorf("missing record in %q", got)
	}
}

func TestFormatSummaryEmpty(t *testing.T) {
	got := FormatSummary(NewSink().GetSummary())
	if !strings.Contains(got, "No round trips") {
		t.Errorf("FormatSummary = %q", got)
	}
}
