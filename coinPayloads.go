package aptos

import (
	"fmt"

	"github.com/aptos-labs/aptos-go-sdk/bcs"
)

// AptosAccountModule is the framework module that creates recipient accounts on first transfer
var AptosAccountModule = ModuleId{
	Address: AccountOne,
	Name:    "aptos_account",
}

// CoinTransferPayload builds an EntryFunction payload for transferring coins
//
// Args:
//   - coinType is the type of coin to transfer. If none is provided, it will transfer AptosCoin
//   - dest is the destination [AccountAddress]
//   - amount is the amount of coins to transfer, in base units
func CoinTransferPayload(coinType *TypeTag, dest AccountAddress, amount uint64) (payload *EntryFunction, err error) {
	amountBytes, err := serializeU64(amount)
	if err != nil {
		return nil, err
	}

	if coinType == nil {
		return &EntryFunction{
			Module:   AptosAccountModule,
			Function: "transfer",
			ArgTypes: []TypeTag{},
			Args: [][]byte{
				dest[:],
				amountBytes,
			},
		}, nil
	} else {
		return &EntryFunction{
			Module:   AptosAccountModule,
			Function: "transfer_coins",
			ArgTypes: []TypeTag{
				*coinType,
			},
			Args: [][]byte{
				dest[:],
				amountBytes,
			},
		}, nil
	}
}

// CoinBatchTransferPayload builds an EntryFunction payload for transferring coins to multiple receivers
//
// Args:
//   - coinType is the type of coin to transfer. If none is provided, it will transfer AptosCoin
//   - dests are the destination [AccountAddress]s
//   - amounts are the amount of coins to transfer per destination
func CoinBatchTransferPayload(coinType *TypeTag, dests []AccountAddress, amounts []uint64) (payload *EntryFunction, err error) {
	if len(dests) != len(amounts) {
		return nil, fmt.Errorf("batch transfer: %d destinations but %d amounts", len(dests), len(amounts))
	}

	destSer := &bcs.Serializer{}
	destSer.Uleb128(uint32(len(dests)))
	for i := range dests {
		dests[i].MarshalBCS(destSer)
	}
	if err = destSer.Error(); err != nil {
		return nil, err
	}

	amountSer := &bcs.Serializer{}
	amountSer.Uleb128(uint32(len(amounts)))
	for _, amount := range amounts {
		amountSer.U64(amount)
	}
	if err = amountSer.Error(); err != nil {
		return nil, err
	}

	if coinType == nil {
		return &EntryFunction{
			Module:   AptosAccountModule,
			Function: "batch_transfer",
			ArgTypes: []TypeTag{},
			Args: [][]byte{
				destSer.ToBytes(),
				amountSer.ToBytes(),
			},
		}, nil
	} else {
		return &EntryFunction{
			Module:   AptosAccountModule,
			Function: "batch_transfer_coins",
			ArgTypes: []TypeTag{
				*coinType,
			},
			Args: [][]byte{
				destSer.ToBytes(),
				amountSer.ToBytes(),
			},
		}, nil
	}
}

// BuildTransfer the transfer instruction moving amount of AptosCoin to recipient.  Pure, no network access.
func BuildTransfer(recipient AccountAddress, amount uint64) (TransactionPayload, error) {
	entryFunction, err := CoinTransferPayload(nil, recipient, amount)
	if err != nil {
		return TransactionPayload{}, err
	}
	return TransactionPayload{Payload: entryFunction}, nil
}

func serializeU64(value uint64) ([]byte, error) {
	ser := &bcs.Serializer{}
	ser.U64(value)
	if err := ser.Error(); err != nil {
		return nil, err
	}
	return ser.ToBytes(), nil
}
