package cache

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Skufu/glucorisk/internal/patient"
	"github.com/Skufu/glucorisk/pkg/logger"
)

// PgxStore serves lookups straight from a pgx pool.
type PgxStore struct {
	pool   *pgxpool.Pool
	schema schemaGate
	query  string
	log    *zap.Logger
}

func NewPgxStore(pool *pgxpool.Pool) *PgxStore {
	where := whereClause(func(i int) string { return "$" + strconv.Itoa(i) })
	return &PgxStore{
		pool:  pool,
		query: "SELECT diabetes FROM patients WHERE " + where + " LIMIT 1",
		log:   logger.WithModule("cache"),
	}
}

func (s *PgxStore) Lookup(ctx context.Context, rec patient.Record) (out patient.Outcome, hit bool, err error) {
	defer func() { observe(hit, err) }()

	args, err := lookupArgs(rec)
	if err != nil {
		return 0, false, err
	}
	if err := s.schema.ensure(ctx, s.applySchema); err != nil {
		return 0, false, err
	}

	var diabetes int
	err = s.pool.QueryRow(ctx, s.query, args...).Scan(&diabetes)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return patient.Outcome(diabetes), true, nil
}

func (s *PgxStore) applySchema(ctx context.Context) error {
	script, err := schemaScript("postgres")
	if err != nil {
		return err
	}
	for _, stmt := range splitStatements(script) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	s.log.Info("schema applied", zap.String("dialect", "postgres"))
	return nil
}

func (s *PgxStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PgxStore) Close() error {
	s.pool.Close()
	return nil
}
