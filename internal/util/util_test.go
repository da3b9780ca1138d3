package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHex(t *testing.T) {
	withPrefix, err := ParseHex("0x0a0b")
	assert.NoError(t, err)
	withoutPrefix, err := ParseHex("0a0b")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x0b}, withPrefix)
	assert.Equal(t, withPrefix, withoutPrefix)

	_, err = ParseHex("0xzz")
	assert.Error(t, err)
}

func TestBytesToHex(t *testing.T) {
	assert.Equal(t, "0x00ff", BytesToHex([]byte{0x00, 0xff}))
	assert.Equal(t, "0x", BytesToHex(nil))
}

func TestStrToUint64(t *testing.T) {
	v, err := StrToUint64("18446744073709551615")
	assert.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), v)

	_, err = StrToUint64("-1")
	assert.Error(t, err)
}

func TestSha3256Hash(t *testing.T) {
	// SHA3-256 of the empty input
	empty := Sha3256Hash(nil)
	assert.Equal(t, "0xa7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", BytesToHex(empty))

	// Concatenation is hashed as a single message
	assert.Equal(t, Sha3256Hash([][]byte{[]byte("ab")}), Sha3256Hash([][]byte{[]byte("a"), []byte("b")}))
}
