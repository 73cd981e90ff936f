package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSha512Half(t *testing.T) {
	a := Sha512Half([]byte("amm"), []byte("core"))
	b := Sha512Half([]byte("ammcore"))
	require.Equal(t, a, b, "concatenation must be equivalent to a single message")

	c := Sha512Half([]byte("amm"), []byte("corf"))
	require.NotEqual(t, a, c)
}

func TestAccountID(t *testing.T) {
	a := AccountID([]byte("seed-1"))
	b := AccountID([]byte("seed-1"))
	require.Equal(t, a, b)

	c := AccountID([]byte("seed-2"))
	require.NotEqual(t, a, c)
}
