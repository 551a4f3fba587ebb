package ports

import (
	"context"

	"surveyweight/domain/analysis"
	"surveyweight/domain/core"
)

// RunRepository persists analysis reports for later inspection.
type RunRepository interface {
	Save(ctx context.Context, report *analysis.Report) error
	GetByID(ctx context.Context, id core.RunID) (*analysis.Report, error)
	List(ctx context.Context, limit int) ([]analysis.Report, error)
}
