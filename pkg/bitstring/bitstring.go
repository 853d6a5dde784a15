/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package bitstring implements the bit-packed status list codec. A BitString
// holds a fixed number of entries, each statusSize bits wide (1 to 8), packed
// left-to-right as required by VC Data Model 2.0 bitstring status lists.
package bitstring

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"
)

const (
	bitsPerByte = 8

	// MinStatusSize and MaxStatusSize bound the width of a single entry.
	MinStatusSize = 1
	MaxStatusSize = 8
)

// ErrOutOfRange is returned when an index or value does not fit the list.
var ErrOutOfRange = errors.New("out of range")

// Encoding is a byte-to-text encoding for the packed buffer.
type Encoding string

const (
	// Base64URL is raw (unpadded) base64url. Mandatory for BitstringStatusList.
	Base64URL = Encoding("base64url")
	// Base64 is standard padded base64. StatusList2021 only.
	Base64 = Encoding("base64")
	// Hex is lowercase hexadecimal. StatusList2021 only.
	Hex = Encoding("hex")
)

// BitString is a fixed-length array of statusSize-bit entries.
type BitString struct {
	bits       []byte
	length     int
	statusSize int
}

// New returns a zeroed BitString holding length entries of statusSize bits.
func New(length, statusSize int) (*BitString, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: length must be positive, got %d", ErrOutOfRange, length)
	}

	if statusSize < MinStatusSize || statusSize > MaxStatusSize {
		return nil, fmt.Errorf("%w: status size must be in [%d,%d], got %d",
			ErrOutOfRange, MinStatusSize, MaxStatusSize, statusSize)
	}

	totalBits := length * statusSize
	size := 1 + ((totalBits - 1) / bitsPerByte)

	return &BitString{
		bits:       make([]byte, size),
		length:     length,
		statusSize: statusSize,
	}, nil
}

// FromBytes wraps an existing packed buffer. The buffer must be large enough
// to hold length entries of statusSize bits.
func FromBytes(bits []byte, length, statusSize int) (*BitString, error) {
	b, err := New(length, statusSize)
	if err != nil {
		return nil, err
	}

	if len(bits)*bitsPerByte < length*statusSize {
		return nil, fmt.Errorf("%w: buffer of %d bytes cannot hold %d entries of %d bits",
			ErrOutOfRange, len(bits), length, statusSize)
	}

	b.bits = bits

	return b, nil
}

// Length returns the number of entries.
func (b *BitString) Length() int {
	return b.length
}

// StatusSize returns the width of one entry, in bits.
func (b *BitString) StatusSize() int {
	return b.statusSize
}

// Bytes returns the underlying packed buffer.
func (b *BitString) Bytes() []byte {
	return b.bits
}

// Set writes value at the given entry index. The value must fit in
// statusSize bits.
func (b *BitString) Set(index int, value uint8) error {
	if err := b.checkIndex(index); err != nil {
		return err
	}

	if b.statusSize < MaxStatusSize && value >= 1<<b.statusSize {
		return fmt.Errorf("%w: value %d does not fit in %d bit(s)", ErrOutOfRange, value, b.statusSize)
	}

	for i := 0; i < b.statusSize; i++ {
		bit := (value >> (b.statusSize - 1 - i)) & 1

		global := index*b.statusSize + i
		byteIdx := global / bitsPerByte
		mask := byte(1) << (bitsPerByte - 1 - global%bitsPerByte)

		if bit == 1 {
			b.bits[byteIdx] |= mask
		} else {
			b.bits[byteIdx] &^= mask
		}
	}

	return nil
}

// Get reads the value at the given entry index.
func (b *BitString) Get(index int) (uint8, error) {
	if err := b.checkIndex(index); err != nil {
		return 0, err
	}

	var value uint8

	for i := 0; i < b.statusSize; i++ {
		global := index*b.statusSize + i
		byteIdx := global / bitsPerByte
		mask := byte(1) << (bitsPerByte - 1 - global%bitsPerByte)

		value <<= 1
		if b.bits[byteIdx]&mask != 0 {
			value |= 1
		}
	}

	return value, nil
}

// SetBit is a 1-bit convenience for StatusList2021 lists.
func (b *BitString) SetBit(index int, set bool) error {
	var v uint8
	if set {
		v = 1
	}

	return b.Set(index, v)
}

// GetBit is a 1-bit convenience for StatusList2021 lists.
func (b *BitString) GetBit(index int) (bool, error) {
	v, err := b.Get(index)
	if err != nil {
		return false, err
	}

	return v != 0, nil
}

// Encode renders the packed buffer with the given text encoding.
func (b *BitString) Encode(encoding Encoding) (string, error) {
	switch encoding {
	case Base64URL:
		return multibase.Encode(multibase.Base64url, b.bits)
	case Base64:
		return base64.StdEncoding.EncodeToString(b.bits), nil
	case Hex:
		return hex.EncodeToString(b.bits), nil
	default:
		return "", fmt.Errorf("encoding not supported: %s", encoding)
	}
}

// Decode is the exact inverse of Encode.
func Decode(encoded string, encoding Encoding, length, statusSize int) (*BitString, error) {
	var (
		bits []byte
		err  error
	)

	switch encoding {
	case Base64URL:
		var enc multibase.Encoding

		enc, bits, err = multibase.Decode(encoded)
		if err == nil && enc != multibase.Base64url {
			err = fmt.Errorf("encoding not supported: %d", enc)
		}
	case Base64:
		bits, err = base64.StdEncoding.DecodeString(encoded)
	case Hex:
		bits, err = hex.DecodeString(encoded)
	default:
		err = fmt.Errorf("encoding not supported: %s", encoding)
	}

	if err != nil {
		return nil, err
	}

	return FromBytes(bits, length, statusSize)
}

func (b *BitString) checkIndex(index int) error {
	if index < 0 || index >= b.length {
		return fmt.Errorf("%w: index %d, list length %d", ErrOutOfRange, index, b.length)
	}

	return nil
}
