package client

import (
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	host "github.com/cosmos/ibc-go/v3/modules/core/24-host"
)

// MsgCreateClient creates a client from an initial client state and the
// consensus state at its latest height.
type MsgCreateClient struct {
	ClientState    *codectypes.Any
	ConsensusState *codectypes.Any
}

func (msg MsgCreateClient) ValidateBasic() error {
	if msg.ClientState == nil {
		return sdkerrors.Wrap(ErrInvalidClient, "client state cannot be empty")
	}
	if msg.ConsensusState == nil {
		return sdkerrors.Wrap(ErrInvalidClient, "consensus state cannot be empty")
	}
	return nil
}

// MsgUpdateClient advances a client with a new header.
type MsgUpdateClient struct {
	ClientID string
	Header   *codectypes.Any
}

func (msg MsgUpdateClient) ValidateBasic() error {
	if err := host.ClientIdentifierValidator(msg.ClientID); err != nil {
		return sdkerrors.Wrap(ErrInvalidClient, err.Error())
	}
	if msg.Header == nil {
		return sdkerrors.Wrap(ErrInvalidClient, "header cannot be empty")
	}
	return nil
}

// MsgSubmitMisbehaviour freezes a client given two conflicting headers.
type MsgSubmitMisbehaviour struct {
	ClientID string
	Header1  *codectypes.Any
	Header2  *codectypes.Any
}

func (msg MsgSubmitMisbehaviour) ValidateBasic() error {
	if err := host.ClientIdentifierValidator(msg.ClientID); err != nil {
		return sdkerrors.Wrap(ErrInvalidClient, err.Error())
	}
	if msg.Header1 == nil || msg.Header2 == nil {
		return sdkerrors.Wrap(ErrInvalidMisbehaviour, "misbehaviour needs two headers")
	}
	return nil
}
