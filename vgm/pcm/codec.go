package pcm

import (
	"errors"
	"fmt"

	"github.com/valerio/go-vgm/vgm/bit"
)

// Compression types stored in the first byte of a compressed block.
const (
	CodecNBit = 0x00
	CodecDPCM = 0x01
)

// Sub-modes of the n-bit codec.
const (
	NBitCopy  = 0x00
	NBitShift = 0x01
	NBitTable = 0x02
)

// blockHeader is codec, decoded size (LE32), BitDec, BitCmp, sub-type and a
// 16 bit add/start value.
const blockHeader = 0x0A

var (
	ErrShortBlock    = errors.New("pcm: compressed block header too short")
	ErrUnknownCodec  = errors.New("pcm: unknown compression type")
	ErrNoTable       = errors.New("pcm: decompression table missing")
	ErrTableMismatch = errors.New("pcm: decompression table does not match block")
	ErrBadTable      = errors.New("pcm: malformed decompression table")
	ErrBadWidth      = errors.New("pcm: unsupported bit width")
	ErrRange         = errors.New("pcm: value does not fit compressed width")
)

// Params are the decoded header fields of a compressed block.
type Params struct {
	Codec   uint8
	Size    uint32
	BitDec  uint8
	BitCmp  uint8
	SubType uint8
	Add     uint16
}

func parseParams(raw []byte) (Params, error) {
	if len(raw) < blockHeader {
		return Params{}, fmt.Errorf("%w: %d bytes", ErrShortBlock, len(raw))
	}
	return Params{
		Codec:   raw[0],
		Size:    bit.LE32(raw[1:]),
		BitDec:  raw[5],
		BitCmp:  raw[6],
		SubType: raw[7],
		Add:     bit.LE16(raw[8:]),
	}, nil
}

// Decompress expands a compressed block (types 0x40-0x7E) with the given
// table, which may be nil for codecs that do not use one. The output is Size
// bytes long, cut short to the values the input actually carries.
func Decompress(raw []byte, table *Table) ([]byte, error) {
	p, err := parseParams(raw)
	if err != nil {
		return nil, err
	}
	if p.BitCmp == 0 || p.BitCmp > 16 || p.BitDec > 16 {
		return nil, fmt.Errorf("%w: BitDec %d BitCmp %d", ErrBadWidth, p.BitDec, p.BitCmp)
	}
	if p.Codec == CodecNBit && p.SubType == NBitShift && p.BitDec < p.BitCmp {
		return nil, fmt.Errorf("%w: shift from %d to %d bits", ErrBadWidth, p.BitCmp, p.BitDec)
	}

	needTable := false
	switch p.Codec {
	case CodecNBit:
		needTable = p.SubType == NBitTable
	case CodecDPCM:
		needTable = true
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownCodec, p.Codec)
	}
	if needTable {
		if table == nil {
			return nil, ErrNoTable
		}
		if table.Codec != p.Codec || table.BitDec != p.BitDec || table.BitCmp != p.BitCmp {
			return nil, fmt.Errorf("%w: table %d/%d, block %d/%d",
				ErrTableMismatch, table.BitDec, table.BitCmp, p.BitDec, p.BitCmp)
		}
	}

	payload := raw[blockHeader:]
	width := valueSize(p.BitDec)
	values := (len(payload)*8 + int(p.BitCmp) - 1) / int(p.BitCmp)
	out := make([]byte, min(uint64(p.Size), uint64(values*width)))
	r := bitReader{data: payload}
	outMask := bit.Mask(p.BitDec)
	acc := uint32(p.Add)

	for pos := 0; pos+width <= len(out) && !r.done(); pos += width {
		in := r.read(p.BitCmp)

		var v uint32
		switch {
		case p.Codec == CodecDPCM:
			acc = (acc + uint32(table.lookup(in))) & outMask
			v = acc
		case p.SubType == NBitCopy:
			v = in + uint32(p.Add)
		case p.SubType == NBitShift:
			v = in<<(p.BitDec-p.BitCmp) + uint32(p.Add)
		case p.SubType == NBitTable:
			v = uint32(table.lookup(in))
		}

		out[pos] = uint8(v)
		if width == 2 {
			out[pos+1] = uint8(v >> 8)
		}
	}

	return out, nil
}

// Compress packs decoded values with the n-bit copy codec: each value minus
// add is stored in bitCmp bits. It is the inverse of Decompress for that mode.
func Compress(data []byte, bitDec, bitCmp uint8, add uint16) ([]byte, error) {
	if bitCmp == 0 || bitCmp > 16 || bitCmp > bitDec || bitDec > 16 {
		return nil, fmt.Errorf("%w: BitDec %d BitCmp %d", ErrBadWidth, bitDec, bitCmp)
	}
	width := valueSize(bitDec)
	if len(data)%width != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrRange, len(data), width)
	}

	block := make([]byte, blockHeader, blockHeader+len(data))
	block[0] = CodecNBit
	putLE32(block[1:], uint32(len(data)))
	block[5] = bitDec
	block[6] = bitCmp
	block[7] = NBitCopy
	block[8] = uint8(add)
	block[9] = uint8(add >> 8)

	w := bitWriter{out: block}
	limit := bit.Mask(bitCmp)
	for pos := 0; pos < len(data); pos += width {
		v := uint32(data[pos])
		if width == 2 {
			v |= uint32(data[pos+1]) << 8
		}
		in := v - uint32(add)
		if v < uint32(add) || in > limit {
			return nil, fmt.Errorf("%w: value 0x%X at %d", ErrRange, v, pos)
		}
		w.write(in, bitCmp)
	}
	return w.out, nil
}

// bitReader reads MSB-first groups of up to 16 bits. Groups wider than 8 bits
// are read as 8 bit chunks, the first chunk becoming the low bits.
type bitReader struct {
	data  []byte
	pos   int
	shift uint
}

func (r *bitReader) done() bool {
	return r.pos >= len(r.data)
}

func (r *bitReader) byteAt(i int) uint32 {
	if i < len(r.data) {
		return uint32(r.data[i])
	}
	return 0
}

func (r *bitReader) read(bits uint8) uint32 {
	var val uint32
	var outBit uint
	for remaining := uint(bits); remaining > 0; {
		n := min(remaining, 8)
		remaining -= n
		mask := uint32(1)<<n - 1

		r.shift += n
		chunk := (r.byteAt(r.pos) << r.shift >> 8) & mask
		if r.shift >= 8 {
			r.shift -= 8
			r.pos++
			if r.shift != 0 {
				chunk |= (r.byteAt(r.pos) << r.shift >> 8) & mask
			}
		}
		val |= chunk << outBit
		outBit += n
	}
	return val
}

// bitWriter appends bits MSB-first, splitting values into the same chunks
// bitReader consumes.
type bitWriter struct {
	out   []byte
	nbits uint
}

func (w *bitWriter) write(v uint32, bits uint8) {
	for remaining := uint(bits); remaining > 0; {
		n := min(remaining, 8)
		remaining -= n
		chunk := v & (uint32(1)<<n - 1)
		v >>= n
		for i := int(n) - 1; i >= 0; i-- {
			if w.nbits%8 == 0 {
				w.out = append(w.out, 0)
			}
			if chunk>>uint(i)&1 != 0 {
				w.out[len(w.out)-1] |= 0x80 >> (w.nbits % 8)
			}
			w.nbits++
		}
	}
}

func putLE32(b []byte, v uint32) {
	b[0] = uint8(v)
	b[1] = uint8(v >> 8)
	b[2] = uint8(v >> 16)
	b[3] = uint8(v >> 24)
}
