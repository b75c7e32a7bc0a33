package corpus

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"

	"qualrag/internal/domain"
)

// Version fingerprints a unit list. Units must already be in id order,
// as ListUnits returns them.
func Version(units []domain.TextUnit) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	var lenBuf [8]byte
	field := func(s string) {
		// length prefix keeps ("ab","c") distinct from ("a","bc")
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(s)))
		h.Write(lenBuf[:])
		h.Write([]byte(s))
	}
	for _, u := range units {
		field(u.ID)
		field(string(u.Category))
		field(u.Body)
		field(u.SourceRef)
	}
	return hex.EncodeToString(h.Sum(nil))
}
