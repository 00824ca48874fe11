package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/peerlearn/internal/db"
)

// baseRepository carries the pool and the Postgres statement builder shared
// by every repository. Queries run on the transaction in ctx when present.
type baseRepository struct {
	pool db.DBTX
	sb   squirrel.StatementBuilderType
}

func newBaseRepository(pool db.DBTX) baseRepository {
	return baseRepository{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r baseRepository) conn(ctx context.Context) db.DBTX {
	return db.Conn(ctx, r.pool)
}

// toJSONB marshals v for a jsonb column.
func toJSONB(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error encoding jsonb: %w", err)
	}
	return b, nil
}
