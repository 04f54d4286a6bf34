package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// ActionType names the operation a step applies.
type ActionType string

const (
	ActionNone                  ActionType = "None"
	ActionCreateClient          ActionType = "ICS02CreateClient"
	ActionUpdateClient          ActionType = "ICS02UpdateClient"
	ActionSubmitMisbehaviour    ActionType = "ICS02SubmitMisbehaviour"
	ActionConnectionOpenInit    ActionType = "ICS03ConnectionOpenInit"
	ActionConnectionOpenTry     ActionType = "ICS03ConnectionOpenTry"
	ActionConnectionOpenAck     ActionType = "ICS03ConnectionOpenAck"
	ActionConnectionOpenConfirm ActionType = "ICS03ConnectionOpenConfirm"
)

// Action is the operation of a step. Identifiers are numeric: client N is
// the mock client 9999-mock-N and connection N is connection-N.
type Action struct {
	Type    ActionType `json:"type"`
	ChainID string     `json:"chainId,omitempty"`
	Height  uint64     `json:"height,omitempty"`

	ClientID                 *uint64 `json:"clientId,omitempty"`
	CounterpartyClientID     *uint64 `json:"counterpartyClientId,omitempty"`
	PreviousConnectionID     *uint64 `json:"previousConnectionId,omitempty"`
	ConnectionID             *uint64 `json:"connectionId,omitempty"`
	CounterpartyConnectionID *uint64 `json:"counterpartyConnectionId,omitempty"`
}

func (a Action) String() string {
	if a.ChainID == "" {
		return string(a.Type)
	}
	return fmt.Sprintf("%s on %s", a.Type, a.ChainID)
}

// ChainState is the expected state of a chain after a step.
type ChainState struct {
	Height uint64 `json:"height"`
}

// Step is one record of a fixture: an action, the outcome it must have, and
// the heights every chain must be at afterwards.
type Step struct {
	Action  Action                `json:"action"`
	Outcome Outcome               `json:"actionOutcome"`
	Chains  map[string]ChainState `json:"chains"`
}

// ParseSteps decodes a JSON fixture.
func ParseSteps(bz []byte) ([]Step, error) {
	var steps []Step
	if err := json.Unmarshal(bz, &steps); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return steps, nil
}

// LoadSteps reads the JSON fixture at path.
func LoadSteps(path string) ([]Step, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	return ParseSteps(bz)
}
