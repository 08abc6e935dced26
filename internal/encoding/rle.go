// Package encoding holds the compact text form used for chunk columns in
// snapshots.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrLength = errors.New("rle: decoded length mismatch")

// EncodeRLE encodes packed blocks as base64 of uvarint (block, run) pairs.
func EncodeRLE(blocks []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(blocks); {
		b := blocks[i]
		run := 1
		for i+run < len(blocks) && blocks[i+run] == b {
			run++
		}
		n := binary.PutUvarint(tmp[:], uint64(b))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE reverses EncodeRLE. want is the exact number of blocks the
// caller expects; runs that would overflow it are rejected before any
// allocation past want.
func DecodeRLE(b64 string, want int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, 0, want)
	for i := 0; i < len(raw); {
		b, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("rle: bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("rle: bad varint at %d", i)
		}
		i += n
		if b > 0xFFFF {
			return nil, fmt.Errorf("rle: block %d out of range", b)
		}
		if run == 0 || run > uint64(want-len(out)) {
			return nil, fmt.Errorf("%w: run of %d at offset %d", ErrLength, run, len(out))
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(b))
		}
	}
	if len(out) != want {
		return nil, fmt.Errorf("%w: got %d want %d", ErrLength, len(out), want)
	}
	return out, nil
}
