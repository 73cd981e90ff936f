package rpc

import "fmt"

// RpcError is a JSON-RPC error with a numeric code and message.
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Message     string `json:"error_message,omitempty"`
}

func (e RpcError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorString
}

// Error codes.
const (
	RpcUNKNOWN          = -1
	RpcMETHOD_NOT_FOUND = -32601
	RpcINVALID_PARAMS   = -32602
	RpcINTERNAL         = -32603

	RpcMISSING_COMMAND = 2
	RpcACT_NOT_FOUND   = 19
	RpcTXN_NOT_FOUND   = 24
	RpcOBJECT_NOT_FOUND = 92
)

func NewRpcError(code int, errorString, message string) *RpcError {
	return &RpcError{Code: code, ErrorString: errorString, Message: message}
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcMETHOD_NOT_FOUND, "unknownCmd", fmt.Sprintf("Unknown method: %s", method))
}

func RpcErrorInvalidParams(message string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", message)
}

func RpcErrorInternal(message string) *RpcError {
	return NewRpcError(RpcINTERNAL, "internal", message)
}

func RpcErrorObjectNotFound(what string) *RpcError {
	return NewRpcError(RpcOBJECT_NOT_FOUND, "entryNotFound", fmt.Sprintf("%s not found", what))
}

func RpcErrorTxnNotFound() *RpcError {
	return NewRpcError(RpcTXN_NOT_FOUND, "txnNotFound", "Transaction not found")
}
