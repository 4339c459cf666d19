package events

import (
	"time"

	"github.com/gridscope/gridscope/core/model"
)

// FetchCompleted is published after each upstream weather request, successful
// or not.
type FetchCompleted struct {
	TerritoryID string
	Kind        model.WindowKind
	Days        int
	Gaps        int
	Latency     time.Duration
	Err         error
}
