package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mvaillant/aria/internal/ads"
	"github.com/mvaillant/aria/internal/errmsg"
)

const (
	appName      = "aria"
	dbFileName   = "aria.db"
	saveDebounce = 500 * time.Millisecond
)

// Manager persists the session snapshot and the ad eligibility ledger in a
// per-device sqlite database. Snapshot saves are debounced; the pending
// snapshot is flushed on Close.
type Manager struct {
	db        *sql.DB
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *Snapshot
}

// Open opens the manager at the default per-device data path.
func Open() (*Manager, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenAt(dbPath)
}

// OpenAt opens the manager at an explicit database path.
func OpenAt(dbPath string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	// Flush pending snapshot
	if pending != nil {
		if err := saveSnapshot(m.db, *pending); err != nil {
			logrus.Warn(errmsg.Format(errmsg.OpSnapshotSave, err))
		}
	}

	return m.db.Close()
}

func (m *Manager) DB() *sql.DB {
	return m.db
}

// GetSnapshot returns the persisted session snapshot.
func (m *Manager) GetSnapshot() (*Snapshot, error) {
	return getSnapshot(m.db)
}

// SaveSnapshot schedules a debounced snapshot write.
// Rapid successive mutations collapse into one write.
func (m *Manager) SaveSnapshot(snap Snapshot) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &snap

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		m.saveMu.Unlock()

		if pending != nil {
			if err := saveSnapshot(m.db, *pending); err != nil {
				logrus.Warn(errmsg.Format(errmsg.OpSnapshotSave, err))
			}
		}
	})
}

// Verify Manager implements the ledger contract at compile time.
var _ ads.LedgerStore = (*Manager)(nil)
