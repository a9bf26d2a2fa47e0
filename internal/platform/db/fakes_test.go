package db

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakePool records statements and hands out fakeTx values from Begin.
type fakePool struct {
	mu       sync.Mutex
	execs    []string
	txs      []*fakeTx
	beginErr error
	failOn   string // Exec fails when the SQL contains this fragment
	applied  map[int]time.Time
}

func newFakePool() *fakePool {
	return &fakePool{applied: make(map[int]time.Time)}
}

func (p *fakePool) fail(sql string) error {
	if p.failOn != "" && strings.Contains(sql, p.failOn) {
		return errors.New("exec failed: " + p.failOn)
	}
	return nil
}

func (p *fakePool) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.execs = append(p.execs, sql)
	return pgconn.CommandTag{}, p.fail(sql)
}

func (p *fakePool) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rows := &fakeRows{}
	for v, at := range p.applied {
		rows.versions = append(rows.versions, v)
		rows.times = append(rows.times, at)
	}
	return rows, nil
}

func (p *fakePool) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return fakeRow{}
}

func (p *fakePool) Begin(_ context.Context) (pgx.Tx, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.beginErr != nil {
		return nil, p.beginErr
	}
	tx := &fakeTx{pool: p}
	p.txs = append(p.txs, tx)
	return tx, nil
}

// fakeTx implements the pgx.Tx methods the gateway uses; the embedded
// interface is nil and panics if anything else is called.
type fakeTx struct {
	pgx.Tx
	pool       *fakePool
	execs      []string
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	if err := t.pool.fail(sql); err != nil {
		return pgconn.CommandTag{}, err
	}
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.pool.Query(ctx, sql, args...)
}

func (t *fakeTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return fakeRow{}
}

func (t *fakeTx) Commit(_ context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type fakeRow struct{}

func (fakeRow) Scan(_ ...any) error { return pgx.ErrNoRows }

type fakeRows struct {
	pgx.Rows
	versions []int
	times    []time.Time
	pos      int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.versions)
}

func (r *fakeRows) Scan(dest ...any) error {
	*(dest[0].(*int)) = r.versions[r.pos-1]
	*(dest[1].(*time.Time)) = r.times[r.pos-1]
	return nil
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }
