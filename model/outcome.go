package model

import (
	"errors"
	"fmt"

	"github.com/cosmos/lightcore/core/client"
	"github.com/cosmos/lightcore/core/connection"
)

// Outcome is the observable result of applying an action.
type Outcome string

const (
	OutcomeNone Outcome = "None"

	OutcomeCreateOK                  Outcome = "ICS02CreateOK"
	OutcomeUpdateOK                  Outcome = "ICS02UpdateOK"
	OutcomeClientNotFound            Outcome = "ICS02ClientNotFound"
	OutcomeHeaderVerificationFailure Outcome = "ICS02HeaderVerificationFailure"
	OutcomeClientTypeMismatch        Outcome = "ICS02ClientTypeMismatch"
	OutcomeClientFrozen              Outcome = "ICS02ClientFrozen"
	OutcomeMisbehaviourOK            Outcome = "ICS02MisbehaviourOK"
	OutcomeInvalidMisbehaviour       Outcome = "ICS02InvalidMisbehaviour"

	OutcomeConnectionOpenInitOK    Outcome = "ICS03ConnectionOpenInitOK"
	OutcomeMissingClient           Outcome = "ICS03MissingClient"
	OutcomeConnectionOpenTryOK     Outcome = "ICS03ConnectionOpenTryOK"
	OutcomeInvalidConsensusHeight  Outcome = "ICS03InvalidConsensusHeight"
	OutcomeConnectionNotFound      Outcome = "ICS03ConnectionNotFound"
	OutcomeConnectionMismatch      Outcome = "ICS03ConnectionMismatch"
	OutcomeConnectionOpenAckOK     Outcome = "ICS03ConnectionOpenAckOK"
	OutcomeConnectionOpenConfirmOK Outcome = "ICS03ConnectionOpenConfirmOK"
	OutcomeInvalidConnectionState  Outcome = "ICS03InvalidConnectionState"
)

// ErrUnmappedOutcome is returned when an action fails with an error that no
// outcome stands for. It points at a fixture that exercises a path the model
// does not describe.
var ErrUnmappedOutcome = errors.New("error has no outcome")

var errorOutcomes = []struct {
	err     error
	outcome Outcome
}{
	{client.ErrClientNotFound, OutcomeClientNotFound},
	{client.ErrHeaderVerificationFailure, OutcomeHeaderVerificationFailure},
	{client.ErrClientTypeMismatch, OutcomeClientTypeMismatch},
	{client.ErrClientFrozen, OutcomeClientFrozen},
	{client.ErrInvalidMisbehaviour, OutcomeInvalidMisbehaviour},
	{connection.ErrMissingClient, OutcomeMissingClient},
	{connection.ErrInvalidConsensusHeight, OutcomeInvalidConsensusHeight},
	{connection.ErrConnectionNotFound, OutcomeConnectionNotFound},
	{connection.ErrConnectionMismatch, OutcomeConnectionMismatch},
	{connection.ErrInvalidConnectionState, OutcomeInvalidConnectionState},
}

// classify maps the result of an action to its outcome. ok is the outcome of
// a successful action.
func classify(err error, ok Outcome) (Outcome, error) {
	if err == nil {
		return ok, nil
	}
	for _, e := range errorOutcomes {
		if errors.Is(err, e.err) {
			return e.outcome, nil
		}
	}
	return "", fmt.Errorf("%w: %v", ErrUnmappedOutcome, err)
}
