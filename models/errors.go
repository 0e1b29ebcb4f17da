package models

import "errors"

// ErrInvalidPolicyState is returned when a policy is not a probability distribution over the
// actions, or when a restriction would leave no action to choose from.
var ErrInvalidPolicyState error = errors.New("invalid policy state")

// ErrConfiguration is returned for grids or placements that cannot exist, e.g. non-positive
// dimensions or a start location outside the grid.
var ErrConfiguration error = errors.New("configuration error")
