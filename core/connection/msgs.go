package connection

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	clienttypes "github.com/cosmos/ibc-go/v3/modules/core/02-client/types"
	connectiontypes "github.com/cosmos/ibc-go/v3/modules/core/03-connection/types"
	host "github.com/cosmos/ibc-go/v3/modules/core/24-host"
)

// MsgConnectionOpenInit starts a handshake on the local chain.
type MsgConnectionOpenInit struct {
	ClientID     string
	Counterparty connectiontypes.Counterparty
	// Version is optional; the default version is proposed when nil.
	Version     *connectiontypes.Version
	DelayPeriod uint64
}

func (msg MsgConnectionOpenInit) ValidateBasic() error {
	if err := host.ClientIdentifierValidator(msg.ClientID); err != nil {
		return sdkerrors.Wrap(ErrMissingClient, err.Error())
	}
	if msg.Counterparty.ConnectionId != "" {
		return sdkerrors.Wrap(ErrInvalidCounterparty, "counterparty connection identifier must be empty")
	}
	return validateCounterparty(msg.Counterparty)
}

// MsgConnectionOpenTry answers a handshake started on the counterparty chain.
// PreviousConnectionID names a local INIT record when both chains started the
// handshake; it is empty otherwise.
type MsgConnectionOpenTry struct {
	PreviousConnectionID string
	ClientID             string
	Counterparty         connectiontypes.Counterparty
	CounterpartyVersions []*connectiontypes.Version
	DelayPeriod          uint64
	ProofHeight          clienttypes.Height
}

func (msg MsgConnectionOpenTry) ValidateBasic() error {
	if msg.PreviousConnectionID != "" {
		if err := host.ConnectionIdentifierValidator(msg.PreviousConnectionID); err != nil {
			return sdkerrors.Wrap(ErrConnectionNotFound, err.Error())
		}
	}
	if err := host.ClientIdentifierValidator(msg.ClientID); err != nil {
		return sdkerrors.Wrap(ErrMissingClient, err.Error())
	}
	if err := validateCounterparty(msg.Counterparty); err != nil {
		return err
	}
	if len(msg.CounterpartyVersions) == 0 {
		return sdkerrors.Wrap(ErrInvalidVersion, "counterparty versions cannot be empty")
	}
	if msg.ProofHeight.IsZero() {
		return sdkerrors.Wrap(ErrInvalidConsensusHeight, "proof height cannot be zero")
	}
	return nil
}

// MsgConnectionOpenAck completes a handshake on the chain that initialized it.
type MsgConnectionOpenAck struct {
	ConnectionID             string
	CounterpartyConnectionID string
	Version                  *connectiontypes.Version
	ProofHeight              clienttypes.Height
}

func (msg MsgConnectionOpenAck) ValidateBasic() error {
	if err := host.ConnectionIdentifierValidator(msg.ConnectionID); err != nil {
		return sdkerrors.Wrap(ErrConnectionNotFound, err.Error())
	}
	if err := host.ConnectionIdentifierValidator(msg.CounterpartyConnectionID); err != nil {
		return sdkerrors.Wrap(ErrInvalidCounterparty, err.Error())
	}
	if msg.Version == nil {
		return sdkerrors.Wrap(ErrInvalidVersion, "version cannot be empty")
	}
	if msg.ProofHeight.IsZero() {
		return sdkerrors.Wrap(ErrInvalidConsensusHeight, "proof height cannot be zero")
	}
	return nil
}

// MsgConnectionOpenConfirm completes a handshake on the chain that answered it.
type MsgConnectionOpenConfirm struct {
	ConnectionID string
	ProofHeight  clienttypes.Height
}

func (msg MsgConnectionOpenConfirm) ValidateBasic() error {
	if err := host.ConnectionIdentifierValidator(msg.ConnectionID); err != nil {
		return sdkerrors.Wrap(ErrConnectionNotFound, err.Error())
	}
	if msg.ProofHeight.IsZero() {
		return sdkerrors.Wrap(ErrInvalidConsensusHeight, "proof height cannot be zero")
	}
	return nil
}

func validateCounterparty(counterparty connectiontypes.Counterparty) error {
	if err := host.ClientIdentifierValidator(counterparty.ClientId); err != nil {
		return sdkerrors.Wrap(ErrInvalidCounterparty, err.Error())
	}
	if counterparty.ConnectionId != "" {
		if err := host.ConnectionIdentifierValidator(counterparty.ConnectionId); err != nil {
			return sdkerrors.Wrap(ErrInvalidCounterparty, err.Error())
		}
	}
	if counterparty.Prefix.Empty() {
		return sdkerrors.Wrap(ErrInvalidCounterparty, "counterparty prefix cannot be empty")
	}
	return nil
}
