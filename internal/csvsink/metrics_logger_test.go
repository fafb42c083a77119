package csvsink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NewsLabNTU/ddshark-go/internal/metrics"
)

func TestMetricsLoggerComputesRates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metrics.csv")

	l, err := NewMetricsLogger(path)
	if err != nil {
		t.Fatalf("NewMetricsLogger: %v", err)
	}
	defer l.Close()

	t0 := time.Now()
	if err := l.Log(metrics.Snapshot{PacketsReceived: 100, MessagesSent: 90}, t0); err != nil {
		t.Fatalf("Log: %v", err)
	}
	t1 := t0.Add(time.Second)
	if err := l.Log(metrics.Snapshot{PacketsReceived: 300, MessagesSent: 190}, t1); err != nil {
		t.Fatalf("Log: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d:\n%s", len(lines), content)
	}
	if !strings.Contains(lines[2], "200.00") {
		t.Errorf("expected packet_rate ~200/s in second row, got %q", lines[2])
	}
}
