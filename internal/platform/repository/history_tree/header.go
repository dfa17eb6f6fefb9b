package history_tree

import (
	"HistoryDB/internal/domain"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	MagicNumber uint32 = 0x31545348 // "HST1"
	FileVersion int32  = 1

	// HeaderSize is the space reserved in front of the first node block.
	HeaderSize = 4096

	DefaultBlockSize   = 64 * 1024
	DefaultMaxChildren = 50
	MaxBlockSize       = 64 * 1024 * 1024

	// IgnoreProviderVersion reopens a file whatever provider version wrote it.
	IgnoreProviderVersion = math.MinInt32
)

// Config describes a new history tree file.
type Config struct {
	Path            string
	BlockSize       int
	MaxChildren     int
	ProviderVersion int
	StartTime       int64
}

func (c Config) validate() error {
	if c.BlockSize < HeaderSize {
		return fmt.Errorf("block size %d is smaller than the minimum %d", c.BlockSize, HeaderSize)
	}
	if c.BlockSize > MaxBlockSize {
		return fmt.Errorf("block size %d is larger than the maximum %d", c.BlockSize, MaxBlockSize)
	}
	if c.MaxChildren < 2 {
		return fmt.Errorf("max children %d, at least 2 required", c.MaxChildren)
	}
	if coreHeaderSize(c.MaxChildren) >= c.BlockSize {
		return fmt.Errorf("block size %d cannot hold a core node with %d children", c.BlockSize, c.MaxChildren)
	}
	return nil
}

// Header is the fixed-size record at offset 0 of a history file. It is only
// written once the tree is finished.
type Header struct {
	MagicNumber     uint32
	FileVersion     int32
	ProviderVersion int32
	BlockSize       int32
	MaxChildren     int32
	NodeCount       int32
	RootSeq         int32
	StartTime       int64
}

func (h Header) marshal() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize))
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	buf.Write(make([]byte, HeaderSize-buf.Len()))
	return buf.Bytes(), nil
}

func unmarshalHeader(data []byte) (Header, error) {
	var h Header
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return Header{}, fmt.Errorf("%w: %v", domain.ErrInvalidHistoryFile, err)
	}
	return h, nil
}

func (h Header) check(providerVersion int, fileSize int64) error {
	if h.MagicNumber != MagicNumber {
		return fmt.Errorf("%w: bad magic number %#x", domain.ErrInvalidHistoryFile, h.MagicNumber)
	}
	if h.FileVersion != FileVersion {
		return fmt.Errorf("%w: file version %d, expected %d", domain.ErrInvalidHistoryFile, h.FileVersion, FileVersion)
	}
	if providerVersion != IgnoreProviderVersion && int(h.ProviderVersion) != providerVersion {
		return fmt.Errorf("%w: provider version %d, expected %d", domain.ErrInvalidHistoryFile, h.ProviderVersion, providerVersion)
	}
	cfg := Config{BlockSize: int(h.BlockSize), MaxChildren: int(h.MaxChildren)}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidHistoryFile, err)
	}
	if h.NodeCount <= 0 || h.RootSeq < 0 || h.RootSeq >= h.NodeCount {
		return fmt.Errorf("%w: root %d out of %d nodes", domain.ErrInvalidHistoryFile, h.RootSeq, h.NodeCount)
	}
	if want := int64(HeaderSize) + int64(h.NodeCount)*int64(h.BlockSize); want > fileSize {
		return fmt.Errorf("%w: %d nodes need %d bytes, file has %d", domain.ErrInvalidHistoryFile, h.NodeCount, want, fileSize)
	}
	return nil
}
