// Package store provides configx's embeddable facade: the
// open/resolve/close lifecycle binding the parser, interpreter, tree,
// and snapshot+WAL persistence into one object.
//
// Options is a plain struct rather than sourced from a flag/env
// parsing library — there is no CLI surface here to source options
// from; callers construct it directly or via the storageDir/persistent
// shorthand in Open.
package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/aledsdavies/configx/core"
	"github.com/aledsdavies/configx/interp"
	"github.com/aledsdavies/configx/parser"
	"github.com/aledsdavies/configx/snapshot"
	"github.com/aledsdavies/configx/wal"
)

const (
	snapshotFileName    = "snapshot.cfgx"
	snapshotTmpFileName = "snapshot.cfgx.tmp"
	walFileName         = "wal.log"
)

// Options configures a Store. The zero value is a valid, non-persistent,
// in-memory-only configuration.
type Options struct {
	// StorageDir is the directory snapshot.cfgx and wal.log live under.
	// Required when Persistent is true.
	StorageDir string

	// Persistent enables disk-backed snapshot+WAL persistence. When
	// false (or when StorageDir is empty), the store is purely
	// in-memory and skips all disk operations.
	Persistent bool

	// Logger receives WAL-replay diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// MaxTreeDepth bounds the path depth Resolve accepts, guarding
	// against pathological input independent of the snapshot codec's
	// own structural depth guard. Defaults to snapshot.MaxTreeDepth.
	MaxTreeDepth int
}

// Store is configx's embeddable facade. A Store instance is
// single-writer/single-reader: its methods are not safe for concurrent
// use from multiple goroutines without external synchronization, and
// two Store instances must never be opened over the same storage_dir
// concurrently.
type Store struct {
	tree       *core.Tree
	opts       Options
	logger     *slog.Logger
	persistent bool
	dir        string

	lockFile *os.File
	log      *wal.WAL
}

// Open opens a store over storageDir. When persistent is false,
// storageDir is ignored and the store is purely in-memory.
func Open(storageDir string, persistent bool) (*Store, error) {
	return OpenWithOptions(Options{StorageDir: storageDir, Persistent: persistent})
}

// OpenWithOptions opens a store per opts.
func OpenWithOptions(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxTreeDepth <= 0 {
		opts.MaxTreeDepth = snapshot.MaxTreeDepth
	}

	s := &Store{tree: core.NewTree(), opts: opts, logger: logger}

	if !opts.Persistent || opts.StorageDir == "" {
		return s, nil
	}

	if err := os.MkdirAll(opts.StorageDir, 0o755); err != nil {
		return nil, core.NewIOError(fmt.Sprintf("create storage directory %q", opts.StorageDir), err)
	}

	snapPath := filepath.Join(opts.StorageDir, snapshotFileName)

	// An exclusive OS-level file lock on the snapshot file, held via a
	// dedicated handle for the store's lifetime, rejects a second Open
	// over the same storage_dir instead of letting two stores silently
	// corrupt each other's writes. snapshot.Save/Load use their own file
	// handles and are unaffected.
	lockFile, err := os.OpenFile(snapPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, core.NewIOError(fmt.Sprintf("open snapshot file %q for locking", snapPath), err)
	}
	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		lockFile.Close()
		return nil, core.NewIOError(fmt.Sprintf("acquire exclusive lock on %q", snapPath), err)
	}
	s.lockFile = lockFile

	// The lock handle's O_CREATE means snapPath now always exists, even
	// on a brand-new storage_dir — so "no snapshot yet" must be detected
	// by size rather than by snapshot.Load's own PathNotFound branch
	// (which only fires for a genuinely absent file).
	lockInfo, err := lockFile.Stat()
	if err != nil {
		s.releaseLock()
		return nil, core.NewIOError(fmt.Sprintf("stat snapshot file %q", snapPath), err)
	}
	if lockInfo.Size() > 0 {
		if err := snapshot.Load(s.tree, snapPath); err != nil {
			s.releaseLock()
			return nil, err
		}
	}

	walPath := filepath.Join(opts.StorageDir, walFileName)
	w, err := wal.Open(walPath)
	if err != nil {
		s.releaseLock()
		return nil, core.NewIOError(fmt.Sprintf("open wal file %q", walPath), err)
	}
	s.log = w

	if err := wal.Replay(walPath, logger, func(statement []byte) error {
		_, err := interp.ExecuteQuery(s.tree, string(statement))
		return err
	}); err != nil {
		s.log.Close()
		s.releaseLock()
		return nil, core.NewIOError(fmt.Sprintf("replay wal file %q", walPath), err)
	}

	s.dir = opts.StorageDir
	s.persistent = true
	return s, nil
}

// Resolve parses and executes one CFGQL statement. If the statement
// mutated the tree and the store is persistent, a WAL record is
// appended before Resolve returns.
func (s *Store) Resolve(query string) (interface{}, error) {
	stmt, err := parser.Parse(query)
	if err != nil {
		return nil, err
	}
	if len(stmt.Path) > s.opts.MaxTreeDepth {
		return nil, core.NewError(core.KindParseError,
			fmt.Sprintf("path depth %d exceeds maximum %d", len(stmt.Path), s.opts.MaxTreeDepth))
	}

	result, err := interp.Execute(s.tree, stmt)
	if err != nil {
		return nil, err
	}

	if s.persistent && mutates(stmt.Kind) {
		if err := s.log.Append([]byte(query)); err != nil {
			return result, core.NewIOError("append wal record", err)
		}
	}
	return result, nil
}

func mutates(kind parser.StmtKind) bool {
	return kind == parser.Set || kind == parser.Delete
}

// Close writes a fresh snapshot and truncates the WAL if the store is
// persistent, and releases all file handles. Non-persistent stores do
// nothing.
func (s *Store) Close() error {
	if !s.persistent {
		return nil
	}
	defer s.releaseLock()
	defer s.log.Close()

	snapPath := filepath.Join(s.dir, snapshotFileName)
	tmpPath := filepath.Join(s.dir, snapshotTmpFileName)

	if err := snapshot.Save(s.tree, tmpPath); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, snapPath); err != nil {
		return core.NewIOError(fmt.Sprintf("rename %q to %q", tmpPath, snapPath), err)
	}

	return s.log.Truncate()
}

// Checksum returns a BLAKE2b-256 digest of the store's current
// in-memory tree (see snapshot.Checksum) — a diagnostic convenience,
// not required for normal open/resolve/close operation.
func (s *Store) Checksum() ([32]byte, error) {
	return snapshot.Checksum(s.tree)
}

func (s *Store) releaseLock() {
	if s.lockFile == nil {
		return
	}
	syscall.Flock(int(s.lockFile.Fd()), syscall.LOCK_UN)
	s.lockFile.Close()
	s.lockFile = nil
}
