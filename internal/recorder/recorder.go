package recorder

import "time"

// CycleRecord summarises one refresh cycle.
type CycleRecord struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Symbols   int
	OK        int
	Failed    int
	NoData    int
	Trigger   string // "schedule" or "manual"
}

// Quote is a fetched price observation for one symbol.
type Quote struct {
	CycleID       string    `json:"cycle_id"`
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        float64   `json:"volume"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// FetchFailure records a symbol whose fetch failed in a cycle.
type FetchFailure struct {
	CycleID     string
	Symbol      string
	Error       string
	FailedAt    time.Time
	Consecutive int
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordCycle(c *CycleRecord) error
	RecordQuote(q *Quote) error
	RecordFailure(f *FetchFailure) error
	Close() error
}
