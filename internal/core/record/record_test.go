package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmmRoundTrip(t *testing.T) {
	a := &Amm{
		ID:    [32]byte{1, 2, 3},
		Admin: [20]byte{9, 8, 7},
		Fee:   500,
	}
	data, err := SerializeAmm(a)
	require.NoError(t, err)
	require.Equal(t, TypeAmm, TypeOf(data))

	got, err := ParseAmm(data)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestAmmValidate(t *testing.T) {
	tt := []struct {
		name    string
		fee     uint16
		wantErr bool
	}{
		{"zero fee", 0, false},
		{"typical fee", 30, false},
		{"max valid fee", 9999, false},
		{"fee at bound", 10000, true},
		{"fee above bound", 65535, true},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			a := &Amm{Fee: tc.fee}
			err := a.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRecord)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPoolValidate(t *testing.T) {
	lo := [32]byte{1}
	hi := [32]byte{2}

	p := &Pool{MintA: lo, MintB: hi}
	assert.NoError(t, p.Validate())

	p = &Pool{MintA: hi, MintB: lo}
	assert.Error(t, p.Validate())

	p = &Pool{MintA: lo, MintB: lo}
	assert.Error(t, p.Validate(), "equal mints are not a valid pair")
}

func TestDepositRoundTrip(t *testing.T) {
	d := &Deposit{
		Pool:      [32]byte{0xAA},
		Depositor: [20]byte{0xBB},
		Liquidity: 50_000_000,
	}
	data, err := SerializeDeposit(d)
	require.NoError(t, err)

	got, err := ParseDeposit(data)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestTypeMismatch(t *testing.T) {
	data, err := SerializeAmm(&Amm{Fee: 1})
	require.NoError(t, err)

	_, err = ParsePool(data)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = ParseAmm(nil)
	assert.ErrorIs(t, err, ErrEmptyRecord)
}

func TestCompareMints(t *testing.T) {
	a := [32]byte{0, 1}
	b := [32]byte{0, 2}
	assert.Equal(t, -1, CompareMints(a, b))
	assert.Equal(t, 1, CompareMints(b, a))
	assert.Equal(t, 0, CompareMints(a, a))
}
