// Package codec converts store identifiers to short codes and back.
//
// A code is the RFC 4648 URL-safe base64 encoding of the identifier written as a
// 6-byte big-endian unsigned integer, so every code is exactly 8 characters long and
// never carries padding.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// Length is the length of every code produced by Encode.
	Length = 8

	// MaxID is the largest identifier that fits in a code.
	MaxID int64 = 1<<48 - 1

	idBytes = 6
)

var (
	ErrEncoding = errors.New("encoding error")
	ErrDecoding = errors.New("decoding error")
)

var encoding = base64.URLEncoding

func Encode(id int64) (string, error) {
	if id < 0 || id > MaxID {
		return "", fmt.Errorf("%w: id %d out of range [0, %d]", ErrEncoding, id, MaxID)
	}

	var buf [idBytes]byte
	for i := idBytes - 1; i >= 0; i-- {
		buf[i] = byte(id)
		id >>= 8
	}

	return encoding.EncodeToString(buf[:]), nil
}

func Decode(code string) (int64, error) {
	if len(code) != Length {
		return 0, fmt.Errorf("%w: code must be %d characters, got %d", ErrDecoding, Length, len(code))
	}

	buf, err := encoding.DecodeString(code)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	if len(buf) != idBytes {
		return 0, fmt.Errorf("%w: code decodes to %d bytes, want %d", ErrDecoding, len(buf), idBytes)
	}

	var id int64
	for _, b := range buf {
		id = id<<8 | int64(b)
	}

	return id, nil
}

// IsValid reports whether code is a well-formed short code, i.e. it decodes without
// error and encodes back to exactly the same text. It must guard every externally
// supplied code before Decode is used for a lookup.
func IsValid(code string) bool {
	if len(code) != Length {
		return false
	}

	id, err := Decode(code)
	if err != nil {
		return false
	}

	encoded, err := Encode(id)
	if err != nil {
		return false
	}

	return encoded == code
}
