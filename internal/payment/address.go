package payment

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

var ErrInvalidAddress = errors.New("invalid address")

// ChecksumAddress returns the EIP-55 form of a 20-byte hex address. Input
// in a single case is accepted as is; mixed case must already carry a valid
// checksum.
func ChecksumAddress(addr string) (string, error) {
	if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return "", ErrInvalidAddress
	}
	body := addr[2:]
	if len(body) != 40 {
		return "", ErrInvalidAddress
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", ErrInvalidAddress
	}

	lower := strings.ToLower(body)
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			out[i] = c - 32
		}
	}
	sum := "0x" + string(out)

	mixed := body != lower && body != strings.ToUpper(body)
	if mixed && body != sum[2:] {
		return "", ErrInvalidAddress
	}
	return sum, nil
}
