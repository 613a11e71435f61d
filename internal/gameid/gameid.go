// Package gameid mints hand identifiers: UUIDv7 values rendered as
// 26-character Crockford base32. The leading 48 bits are the deal's epoch
// milliseconds, so ids sort by time, which keeps the hand archive's
// newest-first queries cheap while staying opaque and unguessable.
package gameid

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Crockford's base32 alphabet, lowercase.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// RandSource supplies the random tail of an id. Nil means crypto/rand;
// tests inject a deterministic source.
type RandSource interface {
	Intn(n int) int
}

// Generator mints ids with a configurable randomness source.
type Generator struct {
	randSource RandSource
}

// NewGenerator returns a Generator. randSource may be nil for crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate mints one id for the current time.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate mints one id using the generator's source.
func (g *Generator) Generate() string {
	return encodeBase32(g.uuidV7(time.Now()))
}

// uuidV7 lays out a 128-bit UUIDv7: 48-bit millisecond timestamp, version
// and variant bits, and the rest random.
func (g *Generator) uuidV7(at time.Time) [16]byte {
	var id [16]byte

	ms := at.UnixMilli()
	id[0] = byte(ms >> 40)
	id[1] = byte(ms >> 32)
	id[2] = byte(ms >> 24)
	id[3] = byte(ms >> 16)
	id[4] = byte(ms >> 8)
	id[5] = byte(ms)

	if g.randSource != nil {
		for i := 6; i < 16; i++ {
			id[i] = byte(g.randSource.Intn(256))
		}
	} else {
		if _, err := rand.Read(id[6:]); err != nil {
			panic("gameid: " + err.Error())
		}
	}

	id[6] = (id[6] & 0x0f) | 0x70 // version 7
	id[8] = (id[8] & 0x3f) | 0x80 // variant 10

	return id
}

// encodeBase32 renders 128 bits as 26 base32 characters, consuming the
// bytes as a big-endian bit stream five bits at a time. The final
// character carries the last 3 bits padded with zeros.
func encodeBase32(data [16]byte) string {
	var out [26]byte
	for i := range out {
		bit := i * 5
		byteIdx, bitIdx := bit/8, bit%8

		var v byte
		if byteIdx < 16 {
			if bitIdx <= 3 {
				v = (data[byteIdx] >> (3 - bitIdx)) & 0x1f
			} else {
				v = (data[byteIdx] << (bitIdx - 3)) & 0x1f
				if byteIdx+1 < 16 {
					v |= data[byteIdx+1] >> (11 - bitIdx)
				}
			}
		}
		out[i] = alphabet[v]
	}
	return string(out[:])
}

// Validate checks shape: 26 characters, all from the alphabet.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("hand id must be 26 characters, got %d", len(id))
	}
	for i := 0; i < len(id); i++ {
		if decodeChar(id[i]) < 0 {
			return fmt.Errorf("hand id has invalid character %q", id[i])
		}
	}
	return nil
}

// Timestamp recovers the mint time embedded in an id's first 48 bits.
func Timestamp(id string) (time.Time, error) {
	if err := Validate(id); err != nil {
		return time.Time{}, err
	}
	var bits int64
	// The first 10 characters carry 50 bits; the top 48 are epoch ms.
	for i := 0; i < 10; i++ {
		bits = bits<<5 | int64(decodeChar(id[i]))
	}
	return time.UnixMilli(bits >> 2), nil
}

func decodeChar(c byte) int {
	for j := 0; j < len(alphabet); j++ {
		if c == alphabet[j] {
			return j
		}
	}
	return -1
}
