package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

// DumpFreq is the number of buffered records that triggers a write to the
// output database.
const DumpFreq = 10000

var schema = []string{
	"CREATE TABLE IF NOT EXISTS AgentEntry (SimId BLOB, AgentId INTEGER, Prototype TEXT, Archetype TEXT, Lifetime INTEGER, EnterTime INTEGER);",
	"CREATE TABLE IF NOT EXISTS AgentExit (SimId BLOB, AgentId INTEGER, ExitTime INTEGER);",
	"CREATE TABLE IF NOT EXISTS TimeSeriesPower (SimId BLOB, AgentId INTEGER, Time INTEGER, Value REAL);",
	"CREATE TABLE IF NOT EXISTS TankTransfers (SimId BLOB, AgentId INTEGER, Time INTEGER, Sender TEXT, Receiver TEXT, Quantity REAL);",
	"CREATE TABLE IF NOT EXISTS Transactions (SimId BLOB, TransactionId INTEGER, SenderId INTEGER, ReceiverId INTEGER, Commodity TEXT, Time INTEGER, Quantity REAL);",
	Index("TimeSeriesPower", "SimId", "AgentId", "Time"),
	Index("TankTransfers", "SimId", "AgentId", "Time"),
	Index("Transactions", "SimId", "TransactionId"),
	Index("Transactions", "SimId", "SenderId", "ReceiverId"),
}

// SQLiteRecorder buffers records in memory and writes them to a SQLite
// database every DumpFreq records and on Close.
type SQLiteRecorder struct {
	path string
	buf  *Trace

	mu  sync.Mutex
	db  *sql.DB
	err error // first write failure, reported by Close
}

// NewSQLiteRecorder creates a recorder for the database at path.
// Init must be called before recording.
func NewSQLiteRecorder(path string) *SQLiteRecorder {
	return &SQLiteRecorder{path: path, buf: NewTrace()}
}

// Init opens the database and creates the output tables.
func (s *SQLiteRecorder) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("creating output tables: %w", err)
		}
	}
	s.db = db
	return nil
}

// RecordAgentEntry buffers an agent entry record.
func (s *SQLiteRecorder) RecordAgentEntry(r AgentEntry) {
	s.buf.RecordAgentEntry(r)
	s.maybeDump()
}

// RecordAgentExit buffers an agent exit record.
func (s *SQLiteRecorder) RecordAgentExit(r AgentExit) {
	s.buf.RecordAgentExit(r)
	s.maybeDump()
}

// RecordPower buffers a power sample.
func (s *SQLiteRecorder) RecordPower(r PowerRecord) {
	s.buf.RecordPower(r)
	s.maybeDump()
}

// RecordTransfer buffers a tank transfer record.
func (s *SQLiteRecorder) RecordTransfer(r TransferRecord) {
	s.buf.RecordTransfer(r)
	s.maybeDump()
}

// RecordTransaction buffers a transaction record.
func (s *SQLiteRecorder) RecordTransaction(r TransactionRecord) {
	s.buf.RecordTransaction(r)
	s.maybeDump()
}

func (s *SQLiteRecorder) maybeDump() {
	if s.buf.Len() < DumpFreq || s.failed() {
		return
	}
	if err := s.dump(context.Background()); err != nil {
		logrus.Errorf("writing records to %s: %v", s.path, err)
	}
}

// Close writes any buffered records and closes the database.
func (s *SQLiteRecorder) Close(ctx context.Context) error {
	dumpErr := s.dump(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return dumpErr
	}
	closeErr := s.db.Close()
	s.db = nil
	if dumpErr != nil {
		return dumpErr
	}
	return closeErr
}

// dump writes the buffered records in one transaction. The buffer is only
// cleared after a commit; a failed batch stays buffered for the next dump.
func (s *SQLiteRecorder) dump(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return errors.New("sqlite recorder is not initialized")
	}
	recs := s.buf.snapshot()

	if err := s.write(ctx, recs); err != nil {
		if s.err == nil {
			s.err = err
		}
		return err
	}
	s.buf.discard(recs)
	s.err = nil
	return nil
}

func (s *SQLiteRecorder) failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err != nil
}

func (s *SQLiteRecorder) write(ctx context.Context, recs *Trace) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range recs.Entries {
		if _, err := tx.ExecContext(ctx, "INSERT INTO AgentEntry VALUES (?,?,?,?,?,?);",
			r.SimID[:], r.AgentID, r.Prototype, r.Archetype, r.Lifetime, r.EnterTime); err != nil {
			return err
		}
	}
	for _, r := range recs.Exits {
		if _, err := tx.ExecContext(ctx, "INSERT INTO AgentExit VALUES (?,?,?);",
			r.SimID[:], r.AgentID, r.ExitTime); err != nil {
			return err
		}
	}
	for _, r := range recs.Power {
		if _, err := tx.ExecContext(ctx, "INSERT INTO TimeSeriesPower VALUES (?,?,?,?);",
			r.SimID[:], r.AgentID, r.Time, r.Value); err != nil {
			return err
		}
	}
	for _, r := range recs.Transfers {
		if _, err := tx.ExecContext(ctx, "INSERT INTO TankTransfers VALUES (?,?,?,?,?,?);",
			r.SimID[:], r.AgentID, r.Time, r.Sender, r.Receiver, r.Quantity); err != nil {
			return err
		}
	}
	for _, r := range recs.Transactions {
		if _, err := tx.ExecContext(ctx, "INSERT INTO Transactions VALUES (?,?,?,?,?,?,?);",
			r.SimID[:], r.TransactionID, r.SenderID, r.ReceiverID, r.Commodity, r.Time, r.Quantity); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DB exposes the underlying database for queries after a run. Nil before
// Init and after Close.
func (s *SQLiteRecorder) DB() *sql.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}
