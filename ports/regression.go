package ports

import (
	"surveyweight/domain/weightstats"
)

// RegressionSolver solves a weighted least-squares problem. The contract,
// including the constant-weight equivalence with ordinary least squares,
// lives with the statistics domain; this alias exposes it alongside the
// other collaborator ports.
type RegressionSolver = weightstats.RegressionSolver
