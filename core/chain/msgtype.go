package chain

import (
	"github.com/cosmos/lightcore/core/client"
	"github.com/cosmos/lightcore/core/connection"
)

// Message type labels, used in logs and metrics.
const (
	MsgTypeCreateClient          = "create_client"
	MsgTypeUpdateClient          = "update_client"
	MsgTypeSubmitMisbehaviour    = "submit_misbehaviour"
	MsgTypeConnectionOpenInit    = "connection_open_init"
	MsgTypeConnectionOpenTry     = "connection_open_try"
	MsgTypeConnectionOpenAck     = "connection_open_ack"
	MsgTypeConnectionOpenConfirm = "connection_open_confirm"
)

// MsgType returns the label of msg.
func MsgType(msg Msg) string {
	switch msg.(type) {
	case client.MsgCreateClient:
		return MsgTypeCreateClient
	case client.MsgUpdateClient:
		return MsgTypeUpdateClient
	case client.MsgSubmitMisbehaviour:
		return MsgTypeSubmitMisbehaviour
	case connection.MsgConnectionOpenInit:
		return MsgTypeConnectionOpenInit
	case connection.MsgConnectionOpenTry:
		return MsgTypeConnectionOpenTry
	case connection.MsgConnectionOpenAck:
		return MsgTypeConnectionOpenAck
	case connection.MsgConnectionOpenConfirm:
		return MsgTypeConnectionOpenConfirm
	default:
		return "unknown"
	}
}
