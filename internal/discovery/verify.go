package discovery

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	nostr "github.com/nbd-wtf/go-nostr"
)

// VerifyEvent checks that evt.ID is the hash of its serialized form and that
// evt.Sig is a valid BIP-340 signature of that hash by evt.PubKey.
func VerifyEvent(evt *nostr.Event) bool {
	h := sha256.Sum256(evt.Serialize())
	if hex.EncodeToString(h[:]) != evt.ID {
		return false
	}

	pubKeyBytes, err := hex.DecodeString(evt.PubKey)
	if err != nil {
		return false
	}
	pubKey, err := schnorr.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false
	}

	sigBytes, err := hex.DecodeString(evt.Sig)
	if err != nil {
		return false
	}
	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		return false
	}

	return sig.Verify(h[:], pubKey)
}
