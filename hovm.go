package hovm

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// FingerprintSize is the size of a Fingerprint in bytes.
const FingerprintSize = 32

// Fingerprint identifies a definition body independent of its name.
type Fingerprint [FingerprintSize]byte

func (fp Fingerprint) String() string {
	return hex.EncodeToString(fp[:8])
}

// Sum computes the fingerprint of x.
// If tag != nil the hash is keyed with the tag.
func Sum(tag *Fingerprint, x []byte) (ret Fingerprint) {
	var key []byte
	if tag != nil {
		key = tag[:]
	}
	h := blake3.New(32, key)
	h.Write(x)
	h.Sum(ret[:0])
	return ret
}
