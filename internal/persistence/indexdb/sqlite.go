package indexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"battlenav/internal/sim/match"
)

// SQLiteIndex is a secondary index of finished runs. Every write goes through
// a single writer goroutine that owns the only connection's transaction. Turn
// rows are queued without blocking and may be dropped under load; the trace
// files remain the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once
	mu   sync.RWMutex

	closed  atomic.Bool
	dropped atomic.Int64
}

var ErrClosed = errors.New("indexdb: closed")

type reqKind int

const (
	reqTurn reqKind = iota + 1
	reqRun
	reqFlush
)

type req struct {
	kind reqKind

	runID string
	rec   match.TurnRecord

	ctx  context.Context
	run  Run
	sum  match.Summary
	done chan error
}

type Run struct {
	RunID      string
	Scenario   string
	Seed       int64
	Turns      int
	Units      int
	Arrived    int
	StartedAt  time.Time
	FinishedAt time.Time
	TracePath  string
}

type UnitResult struct {
	RunID       string
	UnitID      string
	Start       [2]int
	Final       [2]int
	ArrivedTurn int
	Moves       int
	Blocked     int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			seed INTEGER NOT NULL,
			turns INTEGER NOT NULL,
			units INTEGER NOT NULL,
			arrived INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			trace_path TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`,
		`CREATE TABLE IF NOT EXISTS unit_results (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			unit_id TEXT NOT NULL,
			start_x INTEGER NOT NULL,
			start_y INTEGER NOT NULL,
			final_x INTEGER NOT NULL,
			final_y INTEGER NOT NULL,
			arrived_turn INTEGER NOT NULL,
			moves INTEGER NOT NULL,
			blocked INTEGER NOT NULL,
			PRIMARY KEY (run_id, unit_id)
		);`,
		`CREATE TABLE IF NOT EXISTS turns (
			run_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			unit_id TEXT NOT NULL,
			order_kind TEXT NOT NULL,
			from_x INTEGER NOT NULL,
			from_y INTEGER NOT NULL,
			to_x INTEGER NOT NULL,
			to_y INTEGER NOT NULL,
			moved INTEGER NOT NULL,
			err TEXT,
			PRIMARY KEY (run_id, round, unit_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_turns_unit ON turns(run_id, unit_id, round);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed.Store(true)
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// RecordRun stores a finished run and its per-unit results in one
// transaction. Turn rows queued before the call are committed first. An empty
// RunID is filled in; the id used is returned.
func (s *SQLiteIndex) RecordRun(ctx context.Context, run Run, sum match.Summary) (string, error) {
	if run.RunID == "" {
		run.RunID = NewRunID()
	}
	if err := s.call(ctx, req{kind: reqRun, ctx: ctx, run: run, sum: sum}); err != nil {
		return "", err
	}
	return run.RunID, nil
}

// flush commits whatever the writer holds so reads see it and can get the
// connection.
func (s *SQLiteIndex) flush(ctx context.Context) error {
	return s.call(ctx, req{kind: reqFlush})
}

func (s *SQLiteIndex) call(ctx context.Context, r req) error {
	r.done = make(chan error, 1)
	s.mu.RLock()
	if s.closed.Load() {
		s.mu.RUnlock()
		return ErrClosed
	}
	select {
	case s.ch <- r:
		s.mu.RUnlock()
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}
	select {
	case err := <-r.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func writeRun(ctx context.Context, db *sql.DB, run Run, sum match.Summary) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs(run_id,scenario,seed,turns,units,arrived,started_at,finished_at,trace_path) VALUES(?,?,?,?,?,?,?,?,?)`,
		run.RunID, run.Scenario, run.Seed, sum.Turns, len(sum.Units), sum.Arrived,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.TracePath,
	); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO unit_results(run_id,unit_id,start_x,start_y,final_x,final_y,arrived_turn,moves,blocked) VALUES(?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ids := make([]string, 0, len(sum.Units))
	for id := range sum.Units {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		u := sum.Units[id]
		if _, err := stmt.ExecContext(ctx, run.RunID, id,
			u.Start.X, u.Start.Y, u.Final.X, u.Final.Y,
			u.ArrivedTurn, u.Moves, u.Blocked,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Runs lists the most recent runs first. limit <= 0 means 50.
func (s *SQLiteIndex) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	if err := s.flush(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id,scenario,seed,turns,units,arrived,started_at,finished_at,trace_path
		 FROM runs ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished string
		)
		if err := rows.Scan(&r.RunID, &r.Scenario, &r.Seed, &r.Turns, &r.Units, &r.Arrived, &started, &finished, &r.TracePath); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) UnitResults(ctx context.Context, runID string) ([]UnitResult, error) {
	if err := s.flush(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT unit_id,start_x,start_y,final_x,final_y,arrived_turn,moves,blocked
		 FROM unit_results WHERE run_id=? ORDER BY unit_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UnitResult
	for rows.Next() {
		u := UnitResult{RunID: runID}
		if err := rows.Scan(&u.UnitID, &u.Start[0], &u.Start[1], &u.Final[0], &u.Final[1], &u.ArrivedTurn, &u.Moves, &u.Blocked); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// TurnCount returns how many turn rows were indexed for a run.
func (s *SQLiteIndex) TurnCount(ctx context.Context, runID string) (int, error) {
	if err := s.flush(ctx); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM turns WHERE run_id=?`, runID).Scan(&n)
	return n, err
}

// Dropped reports turn rows discarded because the writer fell behind.
func (s *SQLiteIndex) Dropped() int64 { return s.dropped.Load() }

// TurnSink returns a match.TraceSink that indexes turns under runID.
func (s *SQLiteIndex) TurnSink(runID string) *TurnSink {
	return &TurnSink{s: s, runID: runID}
}

type TurnSink struct {
	s     *SQLiteIndex
	runID string
}

func (t *TurnSink) WriteTurn(rec match.TurnRecord) error {
	s := t.s
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTurn, runID: t.runID, rec: rec}:
	default:
		s.dropped.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()
	insertTurn, _ := s.db.Prepare(`INSERT OR REPLACE INTO turns(run_id,round,unit_id,order_kind,from_x,from_y,to_x,to_y,moved,err) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertTurn != nil {
			_ = insertTurn.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	writeTurn := func(r req) {
		begin()
		if tx == nil || insertTurn == nil {
			s.dropped.Add(1)
			return
		}
		rec := r.rec
		var errText any
		if rec.Err != "" {
			errText = rec.Err
		}
		moved := 0
		if rec.Moved {
			moved = 1
		}
		if _, err := tx.Stmt(insertTurn).Exec(
			r.runID, rec.Round, rec.Unit, rec.Order,
			rec.From.X, rec.From.Y, rec.To.X, rec.To.Y,
			moved, errText,
		); err != nil {
			rollback()
			return
		}
		opCount++
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			switch r.kind {
			case reqTurn:
				writeTurn(r)
			case reqRun:
				commit()
				r.done <- writeRun(r.ctx, s.db, r.run, r.sum)
			case reqFlush:
				commit()
				r.done <- nil
			}
		case <-ticker.C:
			if tx != nil && time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
		}
	}
}
