package field

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func TestModulus(t *testing.T) {
	require.Equal(t, ModulusDecimal, Modulus().String())
}

func TestFromText(t *testing.T) {
	// sha256("holder-1") mod p
	e := FromText("holder-1")
	require.Equal(t, "4493711274181495593171382917067826909445210107127309950030561125061552887797", String(e))
	require.Equal(t, e, FromText("holder-1"))
	require.NotEqual(t, e, FromText("holder-2"))

	// the fingerprint of the reference record, as the circuit sees it
	fp := FromText("ded83f1cdd123393f41bec3d816729691879c3201b75fdad78c4d53d6614482b")
	require.Equal(t, "15595871887160982811082844498787869932253706515329474532794009750458065451980", String(fp))
}

func TestFromDigestReduces(t *testing.T) {
	top := bytes.Repeat([]byte{0xff}, 32)
	e := FromDigest(top)
	v := BigInt(e)
	require.True(t, v.Cmp(Modulus()) < 0)

	want := new(big.Int).SetBytes(top)
	want.Mod(want, Modulus())
	require.Equal(t, want.String(), v.String())
}

func TestFromInt64(t *testing.T) {
	require.Equal(t, "1700000000", String(FromInt64(1700000000)))
}

func TestParse(t *testing.T) {
	e, err := Parse("1700000000")
	require.NoError(t, err)
	require.Equal(t, FromInt64(1700000000), e)

	_, err = Parse(ModulusDecimal)
	require.Error(t, err)
	_, err = Parse("-1")
	require.Error(t, err)
	_, err = Parse("0x10")
	require.Error(t, err)
	_, err = Parse("")
	require.Error(t, err)

	require.Equal(t, []string{"1", "2"}, Strings([]fr.Element{FromInt64(1), FromInt64(2)}))
}
