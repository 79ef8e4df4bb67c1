package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/lazharichir/baccarat/odds"
	"github.com/lazharichir/baccarat/report"
	"github.com/lazharichir/baccarat/server/connection"
	"github.com/lazharichir/baccarat/server/events"
)

var ErrUnknownCommand = errors.New("unknown command type")

// Command is a message a client sends over the websocket.
type Command interface {
	Name() string
}

// ComputeOdds asks for the odds of a shoe with Decks decks.
type ComputeOdds struct {
	Decks int `json:"decks"`
}

func (ComputeOdds) Name() string { return "compute-odds" }

// Names of the server-initiated messages.
const (
	OddsResultName = "odds-result"
	ErrorName      = "error"
)

// RunResponse is the payload of an odds-result message and the body of the
// HTTP odds endpoints.
type RunResponse struct {
	RunID     string      `json:"runId"`
	Cached    bool        `json:"cached"`
	ElapsedMs int64       `json:"elapsedMs"`
	Odds      report.View `json:"odds"`
}

func NewRunResponse(run *odds.Run) RunResponse {
	return RunResponse{
		RunID:     run.ID,
		Cached:    run.Cached,
		ElapsedMs: run.Elapsed.Milliseconds(),
		Odds:      report.NewView(run.Result),
	}
}

// ErrorResponse is the payload of an error message.
type ErrorResponse struct {
	RunID   string `json:"runId,omitempty"`
	Message string `json:"message"`
}

// CommandRouter routes incoming commands to the appropriate handler
type CommandRouter struct {
	calc    *odds.Calculator
	connMgr *connection.Manager
}

// NewCommandRouter creates a new command router
func NewCommandRouter(calc *odds.Calculator, connMgr *connection.Manager) *CommandRouter {
	return &CommandRouter{
		calc:    calc,
		connMgr: connMgr,
	}
}

// HandleCommand processes an incoming command message. Long-running
// commands continue in the background until ctx is done.
func (r *CommandRouter) HandleCommand(ctx context.Context, client *connection.Client, message []byte) error {
	var baseCmd struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(message, &baseCmd); err != nil {
		return err
	}

	switch baseCmd.Name {
	case ComputeOdds{}.Name():
		var cmd ComputeOdds
		if err := json.Unmarshal(message, &cmd); err != nil {
			return err
		}
		return r.handleComputeOdds(ctx, client, cmd)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, baseCmd.Name)
	}
}

// SendError reports a failed command back to the client.
func (r *CommandRouter) SendError(client *connection.Client, runID string, err error) {
	data, mErr := events.Envelope(ErrorName, ErrorResponse{RunID: runID, Message: err.Error()})
	if mErr != nil {
		glog.Errorf("marshalling error message: %v", mErr)
		return
	}
	r.connMgr.SendToClient(client.ID, data)
}

func (r *CommandRouter) handleComputeOdds(ctx context.Context, client *connection.Client, cmd ComputeOdds) error {
	runID := uuid.NewString()
	if !r.connMgr.WatchRun(client.ID, runID) {
		return fmt.Errorf("client %s is not registered", client.ID)
	}

	go func() {
		defer r.connMgr.UnwatchRun(client.ID, runID)

		started := time.Now()
		run, err := r.calc.CalculateRun(ctx, runID, cmd.Decks)
		if err != nil {
			r.SendError(client, runID, err)
			return
		}

		data, err := events.Envelope(OddsResultName, NewRunResponse(run))
		if err != nil {
			glog.Errorf("run %s: marshalling result: %v", runID, err)
			return
		}
		r.connMgr.SendToClient(client.ID, data)
		glog.Infof("client %s: run %s (%d decks) answered in %s", client.ID, runID, cmd.Decks, time.Since(started))
	}()
	return nil
}
