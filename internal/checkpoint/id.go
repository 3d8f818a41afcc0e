package checkpoint

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Checkpoint ids are "<UTC millisecond timestamp>-<8-char Crockford suffix>",
// both derived from a single UUIDv7. The timestamp prefix makes ids sort by
// creation time; the random suffix makes concurrent creation from two
// processes collision-free without coordination.
const idTimeLayout = "20060102T150405.000Z"

func newID() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuidv7: %w", err)
	}

	sec, nsec := u.Time().UnixTime()
	created := time.Unix(sec, nsec).UTC()

	return created.Format(idTimeLayout) + "-" + shortSuffix(u), nil
}

const (
	suffixLength  = 8
	crockfordBase = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
)

// shortSuffix encodes the high 40 random bits of a UUIDv7 as Crockford
// base32. UUIDv7 layout (RFC 9562): 48-bit time, 4-bit version, 12-bit
// rand_a, 2-bit variant, 62-bit rand_b.
func shortSuffix(u uuid.UUID) string {
	randA := (uint64(u[6]&0x0f) << 8) | uint64(u[7])
	randB := (uint64(u[8]&0x3f) << 56) |
		(uint64(u[9]) << 48) |
		(uint64(u[10]) << 40) |
		(uint64(u[11]) << 32) |
		(uint64(u[12]) << 24) |
		(uint64(u[13]) << 16) |
		(uint64(u[14]) << 8) |
		uint64(u[15])

	top40 := (randA << 28) | (randB >> 34)

	var buf [suffixLength]byte
	for i := suffixLength - 1; i >= 0; i-- {
		buf[i] = crockfordBase[top40&0x1f]
		top40 >>= 5
	}

	return string(buf[:])
}
