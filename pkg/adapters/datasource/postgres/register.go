package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/crossquery/crossquery-engine/pkg/adapters/datasource"
	"github.com/crossquery/crossquery-engine/pkg/catalog"
)

func init() {
	datasource.Register("postgres", func(ctx context.Context, src *catalog.Source, logger *zap.Logger) (datasource.Adapter, error) {
		return New(ctx, src, logger)
	})
}
