package ports

import (
	"context"

	"surveyweight/domain/survey"
)

// FrameReader loads a tabular dataset into a survey frame.
type FrameReader interface {
	ReadFrame(ctx context.Context) (*survey.Frame, error)
}
