package treedb

import (
	"bytes"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DB is an open tree. All Nodes obtained from a DB share its single
// in-memory tree; changes made through one are immediately visible through
// all others, and reach the storage on Commit.
type DB struct {
	st        Storage
	format    Format
	transform Transform
	logger    *slog.Logger
	verbose   bool
	indent    string

	mu   sync.RWMutex
	root *Document

	commitMu    sync.Mutex
	fingerprint atomic.Uint64
	commits     atomic.Uint64
	lastSize    atomic.Int64
	lastCommit  atomic.Int64
	closed      atomic.Bool
}

type Options struct {
	Format    Format
	Transform Transform

	// Logger defaults to slog.Default().
	Logger  *slog.Logger
	Verbose bool

	// Indent is the JSON indentation step, three spaces by default.
	Indent  string
	Compact bool

	// Bolt configures the file opened by OpenBolt.
	Bolt BoltOptions
}

type Stats struct {
	Commits    uint64
	LastSize   int64
	LastCommit time.Time
	Storage    string
	Format     Format
}

// Open loads the tree from st. A missing or unreadable tree is not an
// error: the DB starts empty and a warning is logged.
func Open(st Storage, opt Options) (*DB, error) {
	db := &DB{
		st:        st,
		format:    opt.Format,
		transform: opt.Transform,
		logger:    opt.Logger,
		verbose:   opt.Verbose,
		indent:    opt.Indent,
	}
	if db.logger == nil {
		db.logger = slog.Default()
	}
	if db.indent == "" {
		db.indent = defaultIndent
	}
	if opt.Compact {
		db.indent = ""
	}

	db.root = db.load()
	if raw, err := db.format.Encode(nil, db.root, db.indent); err == nil {
		db.fingerprint.Store(xxhash.Sum64(raw))
	}
	return db, nil
}

// OpenFile opens the tree stored in the file at path, creating the file if
// needed.
func OpenFile(path string, opt Options) (*DB, error) {
	st, err := NewFileStorage(path)
	if err != nil {
		return nil, errf(ErrDatabaseCreation, err, "cannot create %s", path)
	}
	return Open(st, opt)
}

// OpenBolt opens the tree called name inside the Bolt file at path. Closing
// the DB closes the file.
func OpenBolt(path, name string, opt Options) (*DB, error) {
	bf, err := OpenBoltFile(path, opt.Bolt)
	if err != nil {
		return nil, errf(ErrDatabaseCreation, err, "cannot open %s", path)
	}
	st := bf.Storage(name)
	st.owned = true
	return Open(st, opt)
}

func (db *DB) load() *Document {
	var doc *Document
	err := db.st.Load(func(data []byte) error {
		if data == nil {
			return nil
		}
		var err error
		if db.transform != nil {
			data, err = db.transform.Decode(data)
			if err != nil {
				return err
			}
		}
		doc, err = db.format.Decode(data)
		return err
	})
	if err != nil {
		db.logger.Warn("treedb: cannot load tree, starting empty", "storage", db.st.String(), "err", err)
		doc = nil
	}
	if doc == nil {
		doc = NewDocument()
	}
	return doc
}

// serialize returns the encoded tree before and after the transform. The
// caller must hold db.mu.
func (db *DB) serialize(doc *Document) (raw, data []byte, err error) {
	raw, err = db.format.Encode(nil, doc, db.indent)
	if err != nil {
		return nil, nil, err
	}
	data = raw
	if db.transform != nil {
		data, err = db.transform.Encode(raw)
		if err != nil {
			return nil, nil, err
		}
	}
	return raw, data, nil
}

// Root returns a Node on the root document.
func (db *DB) Root() *Node {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return &Node{db: db, doc: db.root}
}

// Node is shorthand for db.Root().Child(path).
func (db *DB) Node(path string) (*Node, error) {
	return db.Root().Child(path)
}

// Commit writes the whole tree to the storage. The tree stays usable
// afterwards. A failed commit changes nothing in memory, and the storage
// keeps its last successfully written state.
func (db *DB) Commit() error {
	db.commitMu.Lock()
	defer db.commitMu.Unlock()

	if db.closed.Load() {
		return errf(ErrDatabaseCorrupted, ErrStorageClosed, "commit after close")
	}

	start := time.Now()
	db.mu.RLock()
	raw, data, err := db.serialize(db.root)
	db.mu.RUnlock()
	if err != nil {
		return errf(ErrUnknown, err, "cannot serialize tree")
	}

	err = db.st.Store(data)
	if err != nil {
		return errf(ErrDatabaseCorrupted, err, "cannot write %s", db.st.String())
	}

	db.fingerprint.Store(xxhash.Sum64(raw))
	db.commits.Add(1)
	db.lastSize.Store(int64(len(data)))
	db.lastCommit.Store(time.Now().UnixNano())
	if db.verbose {
		db.logger.Debug("treedb: commit", "storage", db.st.String(), "bytes", len(data), "elapsed", time.Since(start))
	}
	return nil
}

// Dirty reports whether the tree has changed since it was loaded or last
// committed.
func (db *DB) Dirty() bool {
	db.mu.RLock()
	raw, err := db.format.Encode(nil, db.root, db.indent)
	db.mu.RUnlock()
	if err != nil {
		return true
	}
	return xxhash.Sum64(raw) != db.fingerprint.Load()
}

// JSON renders the whole tree as indented JSON, regardless of the storage
// format.
func (db *DB) JSON() (string, error) {
	var buf bytes.Buffer
	db.mu.RLock()
	err := encodeJSON(&buf, db.root, db.indent)
	db.mu.RUnlock()
	if err != nil {
		return "", errf(ErrUnknown, err, "cannot render tree")
	}
	return buf.String(), nil
}

func (db *DB) Stats() Stats {
	s := Stats{
		Commits:  db.commits.Load(),
		LastSize: db.lastSize.Load(),
		Storage:  db.st.String(),
		Format:   db.format,
	}
	if ns := db.lastCommit.Load(); ns != 0 {
		s.LastCommit = time.Unix(0, ns)
	}
	return s
}

// Destroy deletes the stored tree and empties the in-memory one. Nodes
// obtained before Destroy become unusable.
func (db *DB) Destroy() error {
	db.commitMu.Lock()
	defer db.commitMu.Unlock()

	if err := db.st.Delete(); err != nil {
		return errf(ErrDatabaseCorrupted, err, "cannot delete %s", db.st.String())
	}

	db.mu.Lock()
	db.root.detach()
	db.root = NewDocument()
	db.mu.Unlock()
	db.fingerprint.Store(0)
	if db.verbose {
		db.logger.Debug("treedb: destroyed", "storage", db.st.String())
	}
	return nil
}

// Close releases the storage without committing.
func (db *DB) Close() error {
	db.commitMu.Lock()
	defer db.commitMu.Unlock()
	if db.closed.Swap(true) {
		return nil
	}
	return db.st.Close()
}
