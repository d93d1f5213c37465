// Package bitcoin implements the node RPC client and Bitcoin block decoding.
package bitcoin

import (
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
)

// BtcToSatoshis converts a BTC amount to satoshis.
// Rounding is half away from zero, the same as the node's AmountFromValue.
func BtcToSatoshis(value float64) (int64, error) {
	amt, err := btcutil.NewAmount(value)
	if err != nil {
		return 0, err
	}
	if amt < 0 {
		return 0, fmt.Errorf("negative amount: %d", amt)
	}
	return int64(amt), nil
}

// ResolveAddress prefers the singular address field and falls back to the
// first entry of the legacy addresses list. Nil when neither is present.
func ResolveAddress(spk btcjson.ScriptPubKeyResult) *string {
	if spk.Address != "" {
		address := spk.Address
		return &address
	}
	if len(spk.Addresses) > 0 && spk.Addresses[0] != "" {
		address := spk.Addresses[0]
		return &address
	}
	return nil
}
