package tx

import "fmt"

// Result represents a transaction result code
type Result int

// Result codes are organized by category, the way a ledger engine
// separates malformed input from economically rejected operations:
// tes (success), tec (structurally valid but rejected against current
// state), tem (malformed, rejected before any state access).
const (
	// tesSUCCESS (0)
	TesSUCCESS Result = 0

	// tec codes (100-199): state was read, nothing was committed
	TecDUPLICATE           Result = 100
	TecNO_ENTRY            Result = 101
	TecINSUFFICIENT_FUNDS  Result = 102
	TecMIN_LIQUIDITY       Result = 103
	TecZERO_LIQUIDITY      Result = 104
	TecZERO_WITHDRAWAL     Result = 105
	TecINSUFFICIENT_SHARES Result = 106
	TecEMPTY_POOL          Result = 107
	TecSLIPPAGE            Result = 108
	TecNO_PERMISSION       Result = 109
	TecINTERNAL            Result = 110

	// tem codes (-299 to -200): malformed transaction
	TemMALFORMED       Result = -299
	TemBAD_AMOUNT      Result = -298
	TemBAD_FEE         Result = -297
	TemBAD_MINT_ORDER  Result = -296
	TemBAD_ACCOUNT     Result = -295
	TemINVALID         Result = -294
)

// String returns the string representation of the result code
func (r Result) String() string {
	switch r {
	case TesSUCCESS:
		return "tesSUCCESS"
	case TecDUPLICATE:
		return "tecDUPLICATE"
	case TecNO_ENTRY:
		return "tecNO_ENTRY"
	case TecINSUFFICIENT_FUNDS:
		return "tecINSUFFICIENT_FUNDS"
	case TecMIN_LIQUIDITY:
		return "tecMIN_LIQUIDITY"
	case TecZERO_LIQUIDITY:
		return "tecZERO_LIQUIDITY"
	case TecZERO_WITHDRAWAL:
		return "tecZERO_WITHDRAWAL"
	case TecINSUFFICIENT_SHARES:
		return "tecINSUFFICIENT_SHARES"
	case TecEMPTY_POOL:
		return "tecEMPTY_POOL"
	case TecSLIPPAGE:
		return "tecSLIPPAGE"
	case TecNO_PERMISSION:
		return "tecNO_PERMISSION"
	case TecINTERNAL:
		return "tecINTERNAL"
	case TemMALFORMED:
		return "temMALFORMED"
	case TemBAD_AMOUNT:
		return "temBAD_AMOUNT"
	case TemBAD_FEE:
		return "temBAD_FEE"
	case TemBAD_MINT_ORDER:
		return "temBAD_MINT_ORDER"
	case TemBAD_ACCOUNT:
		return "temBAD_ACCOUNT"
	case TemINVALID:
		return "temINVALID"
	default:
		return fmt.Sprintf("Unknown(%d)", r)
	}
}

// IsSuccess returns true if the result indicates success
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true if this is a tec (economically rejected) code
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTem returns true if this is a tem (malformed) code
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	switch r {
	case TesSUCCESS:
		return "The transaction was applied."
	case TecDUPLICATE:
		return "A record already exists at the derived address."
	case TecNO_ENTRY:
		return "A referenced record does not exist."
	case TecINSUFFICIENT_FUNDS:
		return "The source account lacks the required balance."
	case TecMIN_LIQUIDITY:
		return "Initial deposit does not exceed the minimum liquidity lock."
	case TecZERO_LIQUIDITY:
		return "The deposit is too small to mint any liquidity shares."
	case TecZERO_WITHDRAWAL:
		return "Rounding drives a withdrawal amount to zero."
	case TecINSUFFICIENT_SHARES:
		return "The depositor is not entitled to burn that many shares."
	case TecEMPTY_POOL:
		return "The pool holds no liquidity."
	case TecSLIPPAGE:
		return "The swap output is below the caller's minimum."
	case TemBAD_AMOUNT:
		return "Amounts must be positive."
	case TemBAD_FEE:
		return "Fee must be below 10000 basis points."
	case TemBAD_MINT_ORDER:
		return "Pool mints must be supplied in canonical order."
	default:
		return r.String()
	}
}

// resultNames maps validation-error prefixes to result codes, so
// Validate can report malformed input as errors while the engine still
// surfaces a distinguishable code.
var resultNames = map[string]Result{
	"temMALFORMED":      TemMALFORMED,
	"temBAD_AMOUNT":     TemBAD_AMOUNT,
	"temBAD_FEE":        TemBAD_FEE,
	"temBAD_MINT_ORDER": TemBAD_MINT_ORDER,
	"temBAD_ACCOUNT":    TemBAD_ACCOUNT,
	"temINVALID":        TemINVALID,
}
