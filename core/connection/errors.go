package connection

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// Codespace is the error codespace of the connection keeper.
const Codespace = "lightcore-connection"

var (
	ErrMissingClient          = sdkerrors.Register(Codespace, 2, "client missing or frozen")
	ErrConnectionNotFound     = sdkerrors.Register(Codespace, 3, "connection not found")
	ErrConnectionMismatch     = sdkerrors.Register(Codespace, 4, "connection mismatch")
	ErrInvalidConsensusHeight = sdkerrors.Register(Codespace, 5, "invalid consensus height")
	ErrInvalidConnectionState = sdkerrors.Register(Codespace, 6, "invalid connection state")
	ErrInvalidCounterparty    = sdkerrors.Register(Codespace, 7, "invalid counterparty")
	ErrInvalidVersion         = sdkerrors.Register(Codespace, 8, "invalid connection version")
)
