package events

import "time"

type RunStarted struct {
	RunID   string    `json:"runId"`
	Decks   int       `json:"decks"`
	Workers int       `json:"workers"`
	At      time.Time `json:"at"`
}

func (e RunStarted) EventName() string { return "run-started" }

// ShardCompleted is emitted once per finished shard of the pattern space.
type ShardCompleted struct {
	RunID    string `json:"runId"`
	Shard    int    `json:"shard"`
	Done     int    `json:"done"`
	Total    int    `json:"total"`
	Patterns int    `json:"patterns"`
}

func (e ShardCompleted) EventName() string { return "shard-completed" }

type RunCompleted struct {
	RunID      string        `json:"runId"`
	Decks      int           `json:"decks"`
	GrandTotal uint64        `json:"grandTotal,string"`
	Cached     bool          `json:"cached"`
	Elapsed    time.Duration `json:"elapsed"`
	At         time.Time     `json:"at"`
}

func (e RunCompleted) EventName() string { return "run-completed" }

type RunFailed struct {
	RunID string    `json:"runId"`
	Decks int       `json:"decks"`
	Error string    `json:"error"`
	At    time.Time `json:"at"`
}

func (e RunFailed) EventName() string { return "run-failed" }
