// Package pcm holds the PCM data banks filled by VGM data blocks and the
// decompression codecs used by compressed blocks.
package pcm

import (
	"errors"
	"fmt"
	"log/slog"
)

const (
	// BankCount is the number of bank types (data block type & 0x3F).
	BankCount = 0x40

	TypeCompressed = 0x40
	TypeTable      = 0x7F
	TypeROM        = 0x80
)

var ErrNotPCM = errors.New("pcm: data block type is not a PCM bank")

// Block locates one data block inside a bank's concatenated buffer.
type Block struct {
	Start int
	Size  int
}

// Bank is an append-only PCM bank.
type Bank struct {
	Data   []byte
	Blocks []Block

	// replay counts blocks seen since the last restart. While it is behind
	// len(Blocks) incoming blocks are replays of ones already stored.
	replay int
}

// Len returns the total number of bytes in the bank.
func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// Block returns block i.
func (b *Bank) Block(i int) (Block, bool) {
	if b == nil || i < 0 || i >= len(b.Blocks) {
		return Block{}, false
	}
	return b.Blocks[i], true
}

// Read returns the byte at offset, or false outside the bank.
func (b *Bank) Read(offset int) (uint8, bool) {
	if b == nil || offset < 0 || offset >= len(b.Data) {
		return 0, false
	}
	return b.Data[offset], true
}

// Store owns every PCM bank and the live decompression table.
type Store struct {
	banks [BankCount]*Bank
	table *Table
}

func NewStore() *Store {
	return &Store{}
}

// Add stores a PCM data block. Types below 0x40 are appended as is, types
// 0x40-0x7E are decompressed first and 0x7F replaces the decompression table.
// A block that fails to decompress is appended with zero length and the
// failure is returned; the bank stays consistent either way. Blocks replayed
// after Restart are recognised and not appended again.
func (s *Store) Add(typ uint8, raw []byte) error {
	switch {
	case typ == TypeTable:
		return s.SetTable(raw)
	case typ >= TypeROM:
		return fmt.Errorf("%w: 0x%02X", ErrNotPCM, typ)
	}

	bank := s.bank(typ & (BankCount - 1))
	if bank.replay < len(bank.Blocks) {
		bank.replay++
		return nil
	}

	var data []byte
	var err error
	if typ >= TypeCompressed {
		data, err = Decompress(raw, s.table)
		if err != nil {
			data = nil
			err = fmt.Errorf("data block 0x%02X: %w", typ, err)
		}
	} else {
		data = raw
	}

	bank.Blocks = append(bank.Blocks, Block{Start: len(bank.Data), Size: len(data)})
	bank.Data = append(bank.Data, data...)
	bank.replay++

	slog.Debug("pcm block added", "type", typ, "size", len(data), "bank_size", len(bank.Data))
	return err
}

// SetTable replaces the decompression table. A malformed table leaves the
// current one in place.
func (s *Store) SetTable(raw []byte) error {
	t, err := ParseTable(raw)
	if err != nil {
		return err
	}
	s.table = t
	return nil
}

// Table returns the live decompression table, or nil.
func (s *Store) Table() *Table {
	return s.table
}

// Bank returns the bank for a type, or nil if nothing was stored in it.
func (s *Store) Bank(typ uint8) *Bank {
	return s.banks[typ&(BankCount-1)]
}

// Read returns a byte from a bank, false outside it.
func (s *Store) Read(typ uint8, offset int) (uint8, bool) {
	return s.Bank(typ).Read(offset)
}

// Restart rewinds every replay cursor. Bank contents are kept.
func (s *Store) Restart() {
	for _, b := range s.banks {
		if b != nil {
			b.replay = 0
		}
	}
}

func (s *Store) bank(i uint8) *Bank {
	if s.banks[i] == nil {
		s.banks[i] = &Bank{}
	}
	return s.banks[i]
}
