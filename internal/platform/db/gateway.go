package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the statement surface shared by the pool and an open transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is satisfied by *pgxpool.Pool.
type Pool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type contextKey string

const txKey contextKey = "db_tx"

// ErrNoPool is returned when the gateway was built without a pool.
var ErrNoPool = errors.New("no database pool configured")

// TxState is the lifecycle of a transaction scope.
type TxState int

const (
	TxPending TxState = iota
	TxCommitted
	TxAborted
)

func (s TxState) String() string {
	switch s {
	case TxPending:
		return "pending"
	case TxCommitted:
		return "committed"
	case TxAborted:
		return "aborted"
	default:
		return fmt.Sprintf("TxState(%d)", int(s))
	}
}

// Scope is a single open transaction. It moves from TxPending to exactly one
// of TxCommitted or TxAborted and never back.
type Scope struct {
	tx    pgx.Tx
	state TxState
}

// State reports where the scope is in its lifecycle.
func (s *Scope) State() TxState { return s.state }

func (s *Scope) commit(ctx context.Context) error {
	if s.state != TxPending {
		return fmt.Errorf("commit on %s transaction", s.state)
	}
	if err := s.tx.Commit(ctx); err != nil {
		// pgx rolls back and releases the connection when commit fails.
		s.state = TxAborted
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.state = TxCommitted
	return nil
}

func (s *Scope) rollback(ctx context.Context) error {
	if s.state != TxPending {
		return nil
	}
	s.state = TxAborted
	if err := s.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

// Gateway is the single entry point to storage. Statements issued through it
// join the transaction carried by ctx when there is one and are auto-committed
// on a pooled connection otherwise.
type Gateway struct {
	pool Pool
}

func NewGateway(pool Pool) *Gateway {
	return &Gateway{pool: pool}
}

// Conn returns the transaction bound to ctx, or the pool.
func (g *Gateway) Conn(ctx context.Context) Querier {
	if s := ScopeFromContext(ctx); s != nil {
		return s.tx
	}
	return g.pool
}

func (g *Gateway) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return g.Conn(ctx).Exec(ctx, sql, args...)
}

func (g *Gateway) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return g.Conn(ctx).Query(ctx, sql, args...)
}

func (g *Gateway) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return g.Conn(ctx).QueryRow(ctx, sql, args...)
}

// InTx runs fn inside one transaction. fn receives a context carrying the
// transaction; statements issued through the gateway with that context share
// it. The transaction commits when fn returns nil and rolls back when fn
// returns an error or panics. Either way the connection goes back to the pool.
//
// A ctx that already carries a transaction is reused as is, so the outermost
// InTx decides the outcome.
func (g *Gateway) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ScopeFromContext(ctx) != nil {
		return fn(ctx)
	}
	if g.pool == nil {
		return ErrNoPool
	}

	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	scope := &Scope{tx: tx, state: TxPending}

	defer func() {
		if p := recover(); p != nil {
			_ = scope.rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := scope.rollback(ctx); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	if err = fn(withScope(ctx, scope)); err != nil {
		return err
	}
	return scope.commit(ctx)
}

func withScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, txKey, s)
}

// ScopeFromContext returns the transaction scope bound to ctx, if any.
func ScopeFromContext(ctx context.Context) *Scope {
	s, _ := ctx.Value(txKey).(*Scope)
	return s
}
