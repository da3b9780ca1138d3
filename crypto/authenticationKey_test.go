package crypto

import (
	"testing"

	"github.com/sidkris/aptos-transfer/internal/util"
	"github.com/stretchr/testify/assert"
)

const testAuthKey = "0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"

func TestAuthenticationKey_CryptoMaterial(t *testing.T) {
	authKeyBytes, err := util.ParseHex(testAuthKey)
	assert.NoError(t, err)

	authKeyFromString := &AuthenticationKey{}
	err = authKeyFromString.FromHex(testAuthKey)
	assert.NoError(t, err)

	authKeyFromBytes := &AuthenticationKey{}
	err = authKeyFromBytes.FromBytes(authKeyBytes)
	assert.NoError(t, err)

	assert.Equal(t, authKeyFromString, authKeyFromBytes)

	assert.Equal(t, authKeyBytes, authKeyFromString.Bytes())
	assert.Equal(t, testAuthKey, authKeyFromString.ToHex())

	assert.Equal(t, authKeyBytes, authKeyFromBytes.Bytes())
	assert.Equal(t, testAuthKey, authKeyFromBytes.ToHex())
}

func TestAuthenticationKey_CryptoMaterialError(t *testing.T) {
	authKey := &AuthenticationKey{}
	err := authKey.FromHex("0x123456")
	assert.Error(t, err) // Not long enough

	err = authKey.FromHex("abcde")
	assert.Error(t, err) // Not a string
}

func TestAuthenticationKey_FromPublicKey(t *testing.T) {
	key := &Ed25519PrivateKey{}
	err := key.FromHex("0x" + "01" + "0000000000000000000000000000000000000000000000000000000000" + "0002")
	assert.NoError(t, err)

	pubKey := key.PublicKey()
	expected := util.Sha3256Hash([][]byte{pubKey.Bytes(), {Ed25519Scheme}})

	authKey := key.AuthKey()
	assert.Equal(t, expected, authKey.Bytes())
	assert.Equal(t, authKey, pubKey.AuthKey())
}
