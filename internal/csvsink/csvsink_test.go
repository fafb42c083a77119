package csvsink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NewsLabNTU/ddshark-go/internal/ratestat"
	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
	"github.com/NewsLabNTU/ddshark-go/internal/state"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(prev) })
	return dir
}

func testSnapshot() state.Snapshot {
	guid := rtps.GUID{
		Prefix: rtps.GUIDPrefix{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		Entity: rtps.EntityID{0, 0, 2, byte(rtps.EntityKindWriterNoKeyUser)},
	}
	readerGUID := rtps.GUID{
		Prefix: guid.Prefix,
		Entity: rtps.EntityID{0, 0, 3, byte(rtps.EntityKindReaderNoKeyUser)},
	}
	writer := &state.WriterState{
		GUID:         guid,
		LastSN:       7,
		HasLastSN:    true,
		MessageCount: 3,
		ByteCount:    300,
		TopicName:    "rt/chatter",
		MessageRate:  ratestat.New(time.Second),
		ByteRate:     ratestat.New(time.Second),
	}
	acknackRate := ratestat.New(time.Second)
	acknackRate.Push(time.Now(), 1)
	reader := &state.ReaderState{
		GUID:              readerGUID,
		TopicName:         "rt/chatter",
		AckNackCount:      1,
		AckNackRate:       acknackRate,
		LastAckNackBaseSN: 5,
		HasAckNackState:   true,
	}
	return state.Snapshot{
		Participants: []*state.ParticipantState{
			{
				Prefix:  guid.Prefix,
				Writers: map[rtps.GUID]*state.WriterState{guid: writer},
				Readers: map[rtps.GUID]*state.ReaderState{readerGUID: reader},
			},
		},
		Topics: []*state.TopicState{
			{
				Name:    "rt/chatter",
				Writers: map[rtps.GUID]struct{}{guid: {}},
				Readers: map[rtps.GUID]struct{}{readerGUID: {}},
			},
		},
	}
}

func TestNewRenamesExistingDirectory(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.Mkdir(filepath.Join(dir, "ddshark"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ddshark", "marker"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	if _, err := os.Stat(filepath.Join(dir, "ddshark.old.1", "marker")); err != nil {
		t.Errorf("expected ddshark.old.1/marker to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ddshark", "participant")); err != nil {
		t.Errorf("expected fresh ddshark/participant directory: %v", err)
	}
}

func TestSaveWritesWriterAndTopicRows(t *testing.T) {
	chdirTemp(t)
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	snap := testSnapshot()
	if err := l.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := l.Save(snap); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(l.participantDir, "*", "writers", "*.csv"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected exactly one writer csv, got %v (err=%v)", matches, err)
	}
	content, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 data rows, got %d lines:\n%s", len(lines), content)
	}
	if !strings.Contains(lines[1], "rt/chatter") {
		t.Errorf("expected topic_name column in row, got %q", lines[1])
	}

	topicPath := filepath.Join(l.topicDir, "rt|chatter.csv")
	if _, err := os.Stat(topicPath); err != nil {
		t.Errorf("expected topic csv at %s: %v", topicPath, err)
	}
}

func TestSaveWritesReaderAckNackState(t *testing.T) {
	chdirTemp(t)
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	if err := l.Save(testSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(l.participantDir, "*", "readers", "*.csv"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected exactly one reader csv, got %v (err=%v)", matches, err)
	}
	content, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 data row, got %d lines:\n%s", len(lines), content)
	}
	fields := strings.Split(lines[1], ",")
	if fields[0] != "5" {
		t.Errorf("last_sn = %q, want \"5\"", fields[0])
	}
	if fields[1] != "1" {
		t.Errorf("total_acknack_count = %q, want \"1\"", fields[1])
	}
	if fields[2] == "0" {
		t.Errorf("avg_acknack_rate = %q, want nonzero", fields[2])
	}
}
