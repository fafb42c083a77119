// Package csvsink writes periodic snapshots of aggregator state to a
// tree of per-entity CSV files, one row appended per snapshot, mirroring
// the original's src/logger.rs.
package csvsink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NewsLabNTU/ddshark-go/internal/rtps"
	"github.com/NewsLabNTU/ddshark-go/internal/state"
)

// Logger appends one row per snapshot to a per-writer, per-reader, and
// per-topic CSV file tree rooted at a freshly created "ddshark" directory
// under the current working directory.
type Logger struct {
	logDir         string
	participantDir string
	topicDir       string

	writers     map[rtps.GUID]*csv.Writer
	writerFiles map[rtps.GUID]*os.File
	readers     map[rtps.GUID]*csv.Writer
	readerFiles map[rtps.GUID]*os.File
	topics      map[string]*csv.Writer
	topicFiles  map[string]*os.File

	participantDirs map[rtps.GUIDPrefix]participantPaths
}

type participantPaths struct {
	writerDir string
	readerDir string
}

var writerHeader = []string{"last_sn", "total_msg_count", "total_byte_count", "avg_msgrate", "avg_bitrate", "topic_name"}
var readerHeader = []string{"last_sn", "total_acknack_count", "avg_acknack_rate"}
var topicHeader = []string{"n_readers", "n_writers"}

// New renames any pre-existing "ddshark" directory in the current working
// directory to "ddshark.old.<N>" for the lowest available N, then creates
// a fresh "ddshark" tree with "participant" and "topic" subdirectories.
func New() (*Logger, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	logDir := filepath.Join(cwd, "ddshark")

	if _, err := os.Stat(logDir); err == nil {
		oldDir, err := firstAvailableOldDir(cwd)
		if err != nil {
			return nil, err
		}
		if err := os.Rename(logDir, oldDir); err != nil {
			return nil, fmt.Errorf("rename existing %s: %w", logDir, err)
		}
	}

	participantDir := filepath.Join(logDir, "participant")
	topicDir := filepath.Join(logDir, "topic")
	for _, dir := range []string{logDir, participantDir, topicDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	return &Logger{
		logDir:          logDir,
		participantDir:  participantDir,
		topicDir:        topicDir,
		writers:         make(map[rtps.GUID]*csv.Writer),
		writerFiles:     make(map[rtps.GUID]*os.File),
		readers:         make(map[rtps.GUID]*csv.Writer),
		readerFiles:     make(map[rtps.GUID]*os.File),
		topics:          make(map[string]*csv.Writer),
		topicFiles:      make(map[string]*os.File),
		participantDirs: make(map[rtps.GUIDPrefix]participantPaths),
	}, nil
}

func firstAvailableOldDir(cwd string) (string, error) {
	for idx := 1; ; idx++ {
		candidate := filepath.Join(cwd, fmt.Sprintf("ddshark.old.%d", idx))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
}

// Save appends one row to each writer/reader/topic CSV for the current
// contents of snap, creating files (with header rows) on first sight of
// an entity.
func (l *Logger) Save(snap state.Snapshot) error {
	for _, p := range snap.Participants {
		paths, err := l.participantPathsFor(p.Prefix)
		if err != nil {
			return err
		}

		for guid, w := range p.Writers {
			wr, err := l.writerFor(guid, paths)
			if err != nil {
				return err
			}
			lastSN := ""
			if w.HasLastSN {
				lastSN = strconv.FormatInt(int64(w.LastSN), 10)
			}
			record := []string{
				lastSN,
				strconv.FormatUint(w.MessageCount, 10),
				strconv.FormatUint(w.ByteCount, 10),
				strconv.FormatFloat(w.MessageRate.Stat().Mean, 'f', -1, 64),
				strconv.FormatFloat(w.ByteRate.Stat().Mean*8, 'f', -1, 64),
				w.TopicName,
			}
			if err := wr.Write(record); err != nil {
				return err
			}
			wr.Flush()
			if err := wr.Error(); err != nil {
				return err
			}
		}

		for guid, r := range p.Readers {
			wr, err := l.readerFor(guid, paths)
			if err != nil {
				return err
			}
			lastSN := ""
			if r.HasAckNackState {
				lastSN = strconv.FormatInt(int64(r.LastAckNackBaseSN), 10)
			}
			record := []string{
				lastSN,
				strconv.FormatUint(r.AckNackCount, 10),
				strconv.FormatFloat(r.AckNackRate.Stat().Mean, 'f', -1, 64),
			}
			if err := wr.Write(record); err != nil {
				return err
			}
			wr.Flush()
			if err := wr.Error(); err != nil {
				return err
			}
		}
	}

	for _, t := range snap.Topics {
		wr, err := l.topicFor(t.Name)
		if err != nil {
			return err
		}
		record := []string{
			strconv.Itoa(len(t.Readers)),
			strconv.Itoa(len(t.Writers)),
		}
		if err := wr.Write(record); err != nil {
			return err
		}
		wr.Flush()
		if err := wr.Error(); err != nil {
			return err
		}
	}

	return nil
}

func (l *Logger) participantPathsFor(prefix rtps.GUIDPrefix) (participantPaths, error) {
	if paths, ok := l.participantDirs[prefix]; ok {
		return paths, nil
	}

	dir := filepath.Join(l.participantDir, prefix.String())
	writerDir := filepath.Join(dir, "writers")
	readerDir := filepath.Join(dir, "readers")
	for _, d := range []string{dir, writerDir, readerDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return participantPaths{}, fmt.Errorf("create %s: %w", d, err)
		}
	}

	paths := participantPaths{writerDir: writerDir, readerDir: readerDir}
	l.participantDirs[prefix] = paths
	return paths, nil
}

func (l *Logger) writerFor(guid rtps.GUID, paths participantPaths) (*csv.Writer, error) {
	if wr, ok := l.writers[guid]; ok {
		return wr, nil
	}
	path := filepath.Join(paths.writerDir, guid.String()+".csv")
	wr, f, err := createWriter(path, writerHeader)
	if err != nil {
		return nil, err
	}
	l.writers[guid] = wr
	l.writerFiles[guid] = f
	return wr, nil
}

func (l *Logger) readerFor(guid rtps.GUID, paths participantPaths) (*csv.Writer, error) {
	if wr, ok := l.readers[guid]; ok {
		return wr, nil
	}
	path := filepath.Join(paths.readerDir, guid.String()+".csv")
	wr, f, err := createWriter(path, readerHeader)
	if err != nil {
		return nil, err
	}
	l.readers[guid] = wr
	l.readerFiles[guid] = f
	return wr, nil
}

func (l *Logger) topicFor(name string) (*csv.Writer, error) {
	if wr, ok := l.topics[name]; ok {
		return wr, nil
	}
	fileName := strings.ReplaceAll(name, "/", "|") + ".csv"
	path := filepath.Join(l.topicDir, fileName)
	wr, f, err := createWriter(path, topicHeader)
	if err != nil {
		return nil, err
	}
	l.topics[name] = wr
	l.topicFiles[name] = f
	return wr, nil
}

func createWriter(path string, header []string) (*csv.Writer, *os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	wr := csv.NewWriter(f)
	if err := wr.Write(header); err != nil {
		return nil, nil, err
	}
	wr.Flush()
	return wr, f, wr.Error()
}

// MetricsLogPath returns the path of the aggregate metrics CSV within this
// logger's "ddshark" directory, for use with NewMetricsLogger.
func (l *Logger) MetricsLogPath() string {
	return filepath.Join(l.logDir, "metrics.csv")
}

// Close closes every open CSV file handle.
func (l *Logger) Close() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, f := range l.writerFiles {
		record(f.Close())
	}
	for _, f := range l.readerFiles {
		record(f.Close())
	}
	for _, f := range l.topicFiles {
		record(f.Close())
	}
	return firstErr
}
