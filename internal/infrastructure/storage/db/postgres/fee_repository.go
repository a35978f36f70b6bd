package postgresdb

import (
	"context"
	"errors"

	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type feeRepositoryPg struct {
	pgxPool *pgxpool.Pool
}

func NewFeeRepositoryPgImpl(pgxPool *pgxpool.Pool) domain.FeePreferenceRepository {
	return newFeeRepositoryPgImpl(pgxPool)
}

func newFeeRepositoryPgImpl(pgxPool *pgxpool.Pool) *feeRepositoryPg {
	return &feeRepositoryPg{pgxPool}
}

func (r *feeRepositoryPg) GetFeeLevel(
	ctx context.Context, asset string,
) (domain.FeeLevel, error) {
	var level int32
	if err := r.pgxPool.QueryRow(
		ctx, "SELECT level FROM fee_preference WHERE asset = $1", asset,
	).Scan(&level); err != nil {
		// an asset without a stored preference defaults to the regular tier.
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FeeLevelRegular, nil
		}
		return domain.FeeLevelNone, err
	}
	return domain.FeeLevel(level), nil
}

func (r *feeRepositoryPg) SetFeeLevel(
	ctx context.Context, asset string, level domain.FeeLevel,
) error {
	_, err := r.pgxPool.Exec(
		ctx,
		`INSERT INTO fee_preference (asset, level) VALUES ($1, $2)
		ON CONFLICT (asset) DO UPDATE SET level = $2`,
		asset, int32(level),
	)
	return err
}

func (r *feeRepositoryPg) reset(ctx context.Context) {
	r.pgxPool.Exec(ctx, "DELETE FROM fee_preference")
}
