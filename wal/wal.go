// Package wal implements configx's write-ahead log: an append-only
// sequence of CRC32-checked records, one per mutating statement,
// replayed in order on open and truncated on a successful snapshot.
//
// Records are length-prefixed and read back with io.ReadFull plus an
// explicit maximum-length guard, so a truncated or corrupt tail is
// detected rather than causing an unbounded read.
package wal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"os"
)

// maxRecordLen bounds a single record's statement length, guarding
// against a corrupt length prefix causing an unbounded allocation
// during replay.
const maxRecordLen = 16 << 20 // 16 MiB

// WAL is an append-only log of raw statement bytes backed by a single
// file kept open for the store's lifetime.
type WAL struct {
	path string
	f    *os.File
}

// Open opens (creating if necessary) the WAL file at path for
// appending, without truncating any existing content.
func Open(path string) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open wal file %q: %w", path, err)
	}
	return &WAL{path: path, f: f}, nil
}

// Append writes one record for statement: u32 len | statement bytes |
// u32 CRC32 of statement bytes, and fsyncs before returning so a crash
// immediately after Append cannot lose the record.
func (w *WAL) Append(statement []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(statement)))
	if _, err := w.f.Write(header[:]); err != nil {
		return fmt.Errorf("append wal record length: %w", err)
	}
	if _, err := w.f.Write(statement); err != nil {
		return fmt.Errorf("append wal record body: %w", err)
	}
	var trailer [4]byte
	binary.BigEndian.PutUint32(trailer[:], crc32.ChecksumIEEE(statement))
	if _, err := w.f.Write(trailer[:]); err != nil {
		return fmt.Errorf("append wal record checksum: %w", err)
	}
	return w.f.Sync()
}

// Truncate resets the WAL file to zero length, used after a successful
// snapshot save — the log only needs to cover mutations since the last
// snapshot.
func (w *WAL) Truncate() error {
	if err := w.f.Truncate(0); err != nil {
		return fmt.Errorf("truncate wal file %q: %w", w.path, err)
	}
	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek wal file %q: %w", w.path, err)
	}
	return w.f.Sync()
}

// Close releases the WAL's file handle.
func (w *WAL) Close() error {
	return w.f.Close()
}

// Replay reads every record from the WAL file at path in order and
// invokes apply with each record's statement bytes.
//
// A record whose CRC fails, or whose application returns an error,
// terminates replay at that record — the remaining log (expected to be
// a crash-truncated tail, since a writer only ever appends) is
// discarded rather than applied. This is logged via logger, not
// returned as an error; Replay itself only fails on an I/O error
// unrelated to record content (e.g. the file existing but being
// unreadable).
func Replay(path string, logger *slog.Logger, apply func(statement []byte) error) error {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open wal file %q for replay: %w", path, err)
	}
	defer f.Close()

	count := 0
	for {
		statement, ok, err := readRecord(f)
		if err != nil {
			logger.Warn("wal replay stopped: malformed record, discarding remaining log",
				"path", path, "records_applied", count, "error", err)
			return nil
		}
		if !ok {
			break
		}

		if err := apply(statement); err != nil {
			logger.Warn("wal replay stopped: record failed to apply, discarding remaining log",
				"path", path, "records_applied", count, "error", err)
			return nil
		}
		count++
	}

	logger.Debug("wal replay complete", "path", path, "records_applied", count)
	return nil
}

// readRecord reads one record from r. ok is false (with a nil error) at
// a clean end-of-file between records. An error return means the
// record present was malformed (truncated or CRC mismatch) — the
// caller treats this as "stop here".
func readRecord(r io.Reader) (statement []byte, ok bool, err error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("truncated record length: %w", err)
	}
	recLen := binary.BigEndian.Uint32(lenBuf[:])
	if recLen > maxRecordLen {
		return nil, false, fmt.Errorf("record length %d exceeds maximum %d", recLen, maxRecordLen)
	}

	body := make([]byte, recLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, false, fmt.Errorf("truncated record body: %w", err)
	}

	var crcBuf [4]byte
	if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
		return nil, false, fmt.Errorf("truncated record checksum: %w", err)
	}
	want := binary.BigEndian.Uint32(crcBuf[:])
	got := crc32.ChecksumIEEE(body)
	if want != got {
		return nil, false, fmt.Errorf("record checksum mismatch: want %x, got %x", want, got)
	}

	return body, true, nil
}
