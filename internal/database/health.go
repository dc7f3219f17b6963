package database

import (
	"context"
	"time"
)

const healthTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ContextPinger is satisfied by *sql.DB.
type ContextPinger interface {
	PingContext(ctx context.Context) error
}

func CheckHealth(ctx context.Context, db Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	return db.Ping(ctx)
}

func CheckSQLHealth(ctx context.Context, db ContextPinger) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	return db.PingContext(ctx)
}
