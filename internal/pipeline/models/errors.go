package models

import "errors"

// Standard sentinels for pipeline orchestration.
var (
	ErrStagePanic      = errors.New("articleforge: stage panicked")           // ErrStagePanic marks a recovered stage panic.
	ErrInvalidRegistry = errors.New("articleforge: invalid stage registry")   // ErrInvalidRegistry indicates a registry construction failure.
	ErrInvalidRequest  = errors.New("articleforge: invalid pipeline request") // ErrInvalidRequest indicates a request that cannot build an execution context.
)
