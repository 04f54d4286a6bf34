package client

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// Codespace is the error codespace of the client keeper.
const Codespace = "lightcore-client"

var (
	ErrClientNotFound            = sdkerrors.Register(Codespace, 2, "light client not found")
	ErrClientTypeMismatch        = sdkerrors.Register(Codespace, 3, "client type mismatch")
	ErrHeaderVerificationFailure = sdkerrors.Register(Codespace, 4, "header verification failed")
	ErrUnknownClientType         = sdkerrors.Register(Codespace, 5, "unknown client type")
	ErrClientFrozen              = sdkerrors.Register(Codespace, 6, "light client is frozen")
	ErrInvalidClient             = sdkerrors.Register(Codespace, 7, "invalid light client")
	ErrInvalidMisbehaviour       = sdkerrors.Register(Codespace, 8, "invalid misbehaviour")
)
