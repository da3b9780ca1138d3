package aptos

import (
	"strconv"

	"github.com/sidkris/aptos-transfer/crypto"
)

// AccountInfo is returned from calls to #Account()
type AccountInfo struct {
	SequenceNumberStr    string `json:"sequence_number"`
	AuthenticationKeyHex string `json:"authentication_key"`
}

// AuthenticationKey Hex decode of AuthenticationKeyHex
func (ai AccountInfo) AuthenticationKey() (*crypto.AuthenticationKey, error) {
	authKey := &crypto.AuthenticationKey{}
	if err := authKey.FromHex(ai.AuthenticationKeyHex); err != nil {
		return nil, err
	}
	return authKey, nil
}

// SequenceNumber ParseUint of SequenceNumberStr
func (ai AccountInfo) SequenceNumber() (uint64, error) {
	return strconv.ParseUint(ai.SequenceNumberStr, 10, 64)
}
