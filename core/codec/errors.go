package codec

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// Codespace is the error codespace of the envelope codec.
const Codespace = "lightcore-codec"

var (
	ErrUnknownHeaderType         = sdkerrors.Register(Codespace, 2, "unknown header type")
	ErrInvalidRawHeader          = sdkerrors.Register(Codespace, 3, "invalid raw header")
	ErrUnknownClientStateType    = sdkerrors.Register(Codespace, 4, "unknown client state type")
	ErrInvalidRawClientState     = sdkerrors.Register(Codespace, 5, "invalid raw client state")
	ErrUnknownConsensusStateType = sdkerrors.Register(Codespace, 6, "unknown consensus state type")
	ErrInvalidRawConsensusState  = sdkerrors.Register(Codespace, 7, "invalid raw consensus state")
)
