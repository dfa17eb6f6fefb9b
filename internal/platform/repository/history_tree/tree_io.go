package history_tree

import (
	"HistoryDB/internal/domain"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

const cacheSize = 256

// treeIO reads and writes node blocks of one history file. Sealed nodes are
// kept in a small LRU cache keyed by sequence number.
type treeIO struct {
	mu          sync.Mutex
	fd          *os.File
	path        string
	blockSize   int
	maxChildren int
	cache       *linkedhashmap.Map
	logger      *slog.Logger
}

func createTreeFile(path string, blockSize, maxChildren int, logger *slog.Logger) (*treeIO, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	return newTreeIO(fd, path, blockSize, maxChildren, logger), nil
}

func openTreeFile(path string) (*os.File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return os.Open(path)
}

func newTreeIO(fd *os.File, path string, blockSize, maxChildren int, logger *slog.Logger) *treeIO {
	return &treeIO{
		fd:          fd,
		path:        path,
		blockSize:   blockSize,
		maxChildren: maxChildren,
		cache:       linkedhashmap.New(),
		logger:      logger,
	}
}

func (tio *treeIO) offset(seq int) int64 {
	return int64(HeaderSize) + int64(seq)*int64(tio.blockSize)
}

func (tio *treeIO) readNode(seq int) (*Node, error) {
	tio.mu.Lock()
	defer tio.mu.Unlock()

	if tio.fd == nil {
		return nil, os.ErrClosed
	}
	if cached, ok := tio.cache.Get(seq); ok {
		// move to the most recent end
		tio.cache.Remove(seq)
		tio.cache.Put(seq, cached)
		return cached.(*Node), nil
	}

	data := make([]byte, tio.blockSize)
	if _, err := tio.fd.ReadAt(data, tio.offset(seq)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: node %d is past the end of %s: %w", domain.ErrInvalidHistoryFile, seq, tio.path, io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	node, err := unmarshalNode(data, seq, tio.maxChildren)
	if err != nil {
		return nil, err
	}
	tio.put(node)
	return node, nil
}

func (tio *treeIO) writeNode(node *Node) error {
	data, err := node.marshal()
	if err != nil {
		return err
	}

	tio.mu.Lock()
	defer tio.mu.Unlock()

	if tio.fd == nil {
		return os.ErrClosed
	}
	if _, err := tio.fd.WriteAt(data, tio.offset(node.seq)); err != nil {
		return err
	}
	tio.put(node)
	tio.logger.Debug("node sealed", "node", node.String())
	return nil
}

func (tio *treeIO) put(node *Node) {
	tio.cache.Remove(node.seq)
	tio.cache.Put(node.seq, node)
	if tio.cache.Size() > cacheSize {
		it := tio.cache.Iterator()
		if it.First() {
			tio.cache.Remove(it.Key())
		}
	}
}

func (tio *treeIO) readHeader() (Header, error) {
	tio.mu.Lock()
	defer tio.mu.Unlock()

	data := make([]byte, HeaderSize)
	if _, err := tio.fd.ReadAt(data, 0); err != nil {
		if errors.Is(err, io.EOF) {
			return unmarshalHeader(nil)
		}
		return Header{}, err
	}
	return unmarshalHeader(data)
}

func (tio *treeIO) writeHeader(h Header) error {
	data, err := h.marshal()
	if err != nil {
		return err
	}

	tio.mu.Lock()
	defer tio.mu.Unlock()

	if _, err := tio.fd.WriteAt(data, 0); err != nil {
		return err
	}
	return tio.fd.Sync()
}

func (tio *treeIO) Close() error {
	tio.mu.Lock()
	defer tio.mu.Unlock()
	return tio.close()
}

func (tio *treeIO) close() error {
	// tio.fd will be nil if close is already called
	if tio.fd != nil {
		if err := tio.fd.Close(); err != nil {
			return err
		}
		tio.fd = nil
		tio.cache.Clear()
	}
	return nil
}

// Delete closes and removes the history file.
func (tio *treeIO) Delete() error {
	tio.mu.Lock()
	defer tio.mu.Unlock()

	if err := tio.close(); err != nil {
		return err
	}
	if err := os.Remove(tio.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	tio.logger.Debug("history file deleted", "path", tio.path)
	return nil
}
