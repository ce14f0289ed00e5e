package domain

import (
	"time"

	"github.com/docbrief/docbrief/pkg/idx"
)

// Operation names the gateway call that produced a usage record.
type Operation string

const (
	OpSummarize Operation = "summarize"
	OpDocument  Operation = "document"
	OpAnalyze   Operation = "analyze"
	OpQuery     Operation = "query"
	OpChat      Operation = "chat"
)

// UsageRecord is one logged inference call. IDs are ULIDs so records sort by
// creation time without a separate ordering column.
type UsageRecord struct {
	ID              idx.ID
	Username        string
	Operation       Operation
	Model           string
	PromptChars     int
	CompletionChars int
	DurationMS      int64
	CreatedAt       time.Time
}
