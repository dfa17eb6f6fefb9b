package history_tree

import (
	. "HistoryDB/internal/domain"
	"HistoryDB/internal/platform/utils"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// HistoryTree is the disk-resident, append-only interval tree. A single
// writer appends intervals in non-decreasing end time order. Every node
// outside the latest branch is sealed on disk.
type HistoryTree struct {
	mu sync.RWMutex

	config    Config
	io        *treeIO
	nodeCount int
	treeEnd   int64
	finished  bool
	// root first, leaf last
	branch []*Node

	logger *slog.Logger
}

// NewHistoryTree creates a new history file, replacing any file at path.
func NewHistoryTree(config Config, logger *slog.Logger) (*HistoryTree, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "history_tree", "path", config.Path)

	tio, err := createTreeFile(config.Path, config.BlockSize, config.MaxChildren, logger)
	if err != nil {
		return nil, err
	}

	ht := &HistoryTree{
		config:  config,
		io:      tio,
		treeEnd: config.StartTime,
		logger:  logger,
	}
	root := ht.newNode(LeafNode, -1, config.StartTime)
	ht.branch = []*Node{root}

	logger.Debug("history tree created", "block_size", config.BlockSize, "max_children", config.MaxChildren)
	return ht, nil
}

// OpenHistoryTree reopens a finished history file in read-only mode.
func OpenHistoryTree(path string, providerVersion int, logger *slog.Logger) (*HistoryTree, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "history_tree", "path", path)

	fd, err := openTreeFile(path)
	if err != nil {
		return nil, err
	}
	tio := newTreeIO(fd, path, 0, 0, logger)

	header, err := tio.readHeader()
	if err == nil {
		var info os.FileInfo
		if info, err = fd.Stat(); err == nil {
			err = header.check(providerVersion, info.Size())
		}
	}
	if err != nil {
		tio.Close()
		return nil, err
	}
	tio.blockSize = int(header.BlockSize)
	tio.maxChildren = int(header.MaxChildren)

	ht := &HistoryTree{
		config: Config{
			Path:            path,
			BlockSize:       int(header.BlockSize),
			MaxChildren:     int(header.MaxChildren),
			ProviderVersion: int(header.ProviderVersion),
			StartTime:       header.StartTime,
		},
		io:        tio,
		nodeCount: int(header.NodeCount),
		finished:  true,
		logger:    logger,
	}
	if err := ht.rebuildLatestBranch(int(header.RootSeq)); err != nil {
		tio.Close()
		return nil, err
	}

	root := ht.branch[0]
	if root.Start() != header.StartTime {
		tio.Close()
		return nil, fmt.Errorf("%w: root starts at %d, header says %d", ErrInvalidHistoryFile, root.Start(), header.StartTime)
	}
	ht.treeEnd = root.End()

	logger.Debug("history tree opened", "nodes", ht.nodeCount, "depth", len(ht.branch))
	return ht, nil
}

func (ht *HistoryTree) rebuildLatestBranch(rootSeq int) error {
	node, err := ht.io.readNode(rootSeq)
	if err != nil {
		return err
	}
	ht.branch = []*Node{node}
	for node.Type() == CoreNode {
		if node.NbChildren() == 0 {
			return fmt.Errorf("%w: core node %d has no children", ErrInvalidHistoryFile, node.Seq())
		}
		if len(ht.branch) > ht.nodeCount {
			return fmt.Errorf("%w: branch deeper than the node count", ErrInvalidHistoryFile)
		}
		child := node.children[node.NbChildren()-1]
		if child < 0 || child >= ht.nodeCount {
			return fmt.Errorf("%w: node %d links to node %d", ErrInvalidHistoryFile, node.Seq(), child)
		}
		if node, err = ht.io.readNode(child); err != nil {
			return err
		}
		ht.branch = append(ht.branch, node)
	}
	return nil
}

func (ht *HistoryTree) newNode(typ NodeType, parent int, start int64) *Node {
	node := newNode(typ, ht.config.BlockSize, ht.config.MaxChildren, ht.nodeCount, parent, start)
	ht.nodeCount++
	return node
}

// MaxIntervalSize is the largest serialized interval any node can hold.
func (ht *HistoryTree) MaxIntervalSize() int {
	return min(ht.config.BlockSize-coreHeaderSize(ht.config.MaxChildren), utils.MaxIntervalSize)
}

// Insert appends one interval to the latest branch, sealing and splitting
// nodes as they fill up.
func (ht *HistoryTree) Insert(interval StateInterval) error {
	size, err := utils.IntervalSize(interval)
	if err != nil {
		return err
	}
	if size > ht.MaxIntervalSize() {
		return fmt.Errorf("%w: %d bytes, at most %d fit in a node", utils.ErrIntervalTooLarge, size, ht.MaxIntervalSize())
	}

	ht.mu.Lock()
	defer ht.mu.Unlock()

	if ht.finished {
		return ErrBackendFinished
	}
	if interval.Start() < ht.config.StartTime {
		return fmt.Errorf("%w: interval %s starts before the tree start %d", ErrTimeRange, interval, ht.config.StartTime)
	}
	return ht.tryInsertAtNode(interval, size, len(ht.branch)-1)
}

func (ht *HistoryTree) tryInsertAtNode(interval StateInterval, size, idx int) error {
	node := ht.branch[idx]

	if size > node.FreeSpace() {
		if err := ht.addSiblingNode(idx); err != nil {
			return err
		}
		return ht.tryInsertAtNode(interval, size, len(ht.branch)-1)
	}

	if interval.Start() < node.Start() {
		if idx == 0 {
			return fmt.Errorf("%w: interval %s starts before root node %d", ErrTimeRange, interval, node.Seq())
		}
		return ht.tryInsertAtNode(interval, size, idx-1)
	}

	node.addInterval(interval, size)
	if interval.End() > ht.treeEnd {
		ht.treeEnd = interval.End()
	}
	return nil
}

// addSiblingNode seals the branch from idx down and replaces it with fresh
// nodes starting right after the current tree end.
func (ht *HistoryTree) addSiblingNode(idx int) error {
	if idx == 0 {
		return ht.addNewRootNode()
	}
	parent := ht.branch[idx-1]
	if parent.NbChildren() == ht.config.MaxChildren {
		return ht.addSiblingNode(idx - 1)
	}

	splitTime := ht.treeEnd
	for _, node := range ht.branch[idx:] {
		node.seal(splitTime)
		if err := ht.io.writeNode(node); err != nil {
			return err
		}
	}

	prev := parent
	for i := idx; i < len(ht.branch); i++ {
		typ := CoreNode
		if i == len(ht.branch)-1 {
			typ = LeafNode
		}
		node := ht.newNode(typ, prev.Seq(), splitTime+1)
		prev.linkNewChild(node)
		ht.branch[i] = node
		prev = node
	}
	return nil
}

// addNewRootNode grows the tree by one level. The old root learns its parent
// right before it is sealed.
func (ht *HistoryTree) addNewRootNode() error {
	splitTime := ht.treeEnd
	oldRoot := ht.branch[0]
	depth := len(ht.branch)

	newRoot := ht.newNode(CoreNode, -1, ht.config.StartTime)
	oldRoot.parent = newRoot.Seq()

	for _, node := range ht.branch {
		node.seal(splitTime)
		if err := ht.io.writeNode(node); err != nil {
			return err
		}
	}
	newRoot.linkNewChild(oldRoot)

	branch := []*Node{newRoot}
	prev := newRoot
	for i := 0; i < depth; i++ {
		typ := CoreNode
		if i == depth-1 {
			typ = LeafNode
		}
		node := ht.newNode(typ, prev.Seq(), splitTime+1)
		prev.linkNewChild(node)
		branch = append(branch, node)
		prev = node
	}
	ht.branch = branch

	ht.logger.Debug("history tree grew", "depth", len(ht.branch), "root", newRoot.Seq())
	return nil
}

// Close seals the latest branch and writes the file header. The tree is
// read-only afterwards.
func (ht *HistoryTree) Close(endTime int64) error {
	ht.mu.Lock()
	defer ht.mu.Unlock()

	if ht.finished {
		return ErrBackendFinished
	}
	if endTime < ht.treeEnd {
		return fmt.Errorf("%w: end %d is before the latest interval end %d", ErrTimeRange, endTime, ht.treeEnd)
	}
	ht.treeEnd = endTime
	for _, node := range ht.branch {
		node.seal(ht.treeEnd)
		if err := ht.io.writeNode(node); err != nil {
			return err
		}
	}

	header := Header{
		MagicNumber:     MagicNumber,
		FileVersion:     FileVersion,
		ProviderVersion: int32(ht.config.ProviderVersion),
		BlockSize:       int32(ht.config.BlockSize),
		MaxChildren:     int32(ht.config.MaxChildren),
		NodeCount:       int32(ht.nodeCount),
		RootSeq:         int32(ht.branch[0].Seq()),
		StartTime:       ht.config.StartTime,
	}
	if err := ht.io.writeHeader(header); err != nil {
		return err
	}
	ht.finished = true
	ht.logger.Debug("history tree closed", "end", ht.treeEnd, "nodes", ht.nodeCount)
	return nil
}

// Visit walks from the root towards the leaf whose range contains t, calling
// visit on each node until it returns false. The latest branch cannot change
// during the walk.
func (ht *HistoryTree) Visit(t int64, visit func(*Node) bool) error {
	ht.mu.RLock()
	defer ht.mu.RUnlock()

	node := ht.branch[0]
	for {
		if !visit(node) || node.Type() == LeafNode {
			return nil
		}
		seq := node.ChildAt(t)
		if seq < 0 {
			return fmt.Errorf("%w: core node %d has no children", ErrInvalidHistoryFile, node.Seq())
		}
		next, err := ht.nodeAt(seq)
		if err != nil {
			return err
		}
		node = next
	}
}

// nodeAt resolves seq against the latest branch before going to disk.
// Callers hold ht.mu.
func (ht *HistoryTree) nodeAt(seq int) (*Node, error) {
	for _, node := range ht.branch {
		if node.Seq() == seq {
			return node, nil
		}
	}
	return ht.io.readNode(seq)
}

// ReadNode returns a node by sequence number.
func (ht *HistoryTree) ReadNode(seq int) (*Node, error) {
	ht.mu.RLock()
	defer ht.mu.RUnlock()

	if seq < 0 || seq >= ht.nodeCount {
		return nil, fmt.Errorf("node %d does not exist, tree has %d nodes", seq, ht.nodeCount)
	}
	return ht.nodeAt(seq)
}

// LatestBranch is a snapshot of the nodes from the root to the current leaf.
func (ht *HistoryTree) LatestBranch() []*Node {
	ht.mu.RLock()
	defer ht.mu.RUnlock()

	return append([]*Node(nil), ht.branch...)
}

func (ht *HistoryTree) NodeCount() int {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	return ht.nodeCount
}

func (ht *HistoryTree) Depth() int {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	return len(ht.branch)
}

func (ht *HistoryTree) StartTime() int64 {
	return ht.config.StartTime
}

func (ht *HistoryTree) EndTime() int64 {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	return ht.treeEnd
}

func (ht *HistoryTree) Finished() bool {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	return ht.finished
}

func (ht *HistoryTree) ProviderVersion() int {
	return ht.config.ProviderVersion
}

func (ht *HistoryTree) Path() string {
	return ht.config.Path
}

// FileSize is the size the history file has once every node is written.
func (ht *HistoryTree) FileSize() int64 {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	return int64(HeaderSize) + int64(ht.nodeCount)*int64(ht.config.BlockSize)
}

// CloseFile releases the file handle and keeps the file.
func (ht *HistoryTree) CloseFile() error {
	return ht.io.Close()
}

// DeleteFile releases the file handle and removes the file.
func (ht *HistoryTree) DeleteFile() error {
	return ht.io.Delete()
}
