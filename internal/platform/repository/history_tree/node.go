package history_tree

import (
	. "HistoryDB/internal/domain"
	"HistoryDB/internal/platform/utils"
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

type NodeType int8

const (
	LeafNode NodeType = 1
	CoreNode NodeType = 2
)

func (t NodeType) String() string {
	switch t {
	case LeafNode:
		return "leaf"
	case CoreNode:
		return "core"
	default:
		return fmt.Sprintf("NodeType(%d)", int8(t))
	}
}

// commonHeaderSize is type + start + end + seq + parent + interval count.
const commonHeaderSize = 1 + 8 + 8 + 4 + 4 + 4

// coreHeaderSize adds the child count and the fixed child tables.
func coreHeaderSize(maxChildren int) int {
	return commonHeaderSize + 4 + maxChildren*(4+8)
}

type nodeHeader struct {
	Type   int8
	Start  int64
	End    int64
	Seq    int32
	Parent int32
	Count  int32
}

// Node is one block of the history tree. Nodes of the latest branch are
// mutated by the writer; once sealed a node is never modified again.
type Node struct {
	typ         NodeType
	blockSize   int
	maxChildren int

	seq    int
	parent int
	start  int64
	end    int64
	sealed bool

	// sorted by end time
	intervals       []StateInterval
	sizeOfIntervals int

	children   []int
	childStart []int64
}

func newNode(typ NodeType, blockSize, maxChildren, seq, parent int, start int64) *Node {
	n := &Node{
		typ:         typ,
		blockSize:   blockSize,
		maxChildren: maxChildren,
		seq:         seq,
		parent:      parent,
		start:       start,
		end:         start,
	}
	if typ == CoreNode {
		n.children = make([]int, 0, maxChildren)
		n.childStart = make([]int64, 0, maxChildren)
	}
	return n
}

func (n *Node) Type() NodeType {
	return n.typ
}

func (n *Node) Seq() int {
	return n.seq
}

func (n *Node) Parent() int {
	return n.parent
}

func (n *Node) Start() int64 {
	return n.start
}

// End is only meaningful once the node is sealed.
func (n *Node) End() int64 {
	return n.end
}

func (n *Node) Sealed() bool {
	return n.sealed
}

func (n *Node) NbChildren() int {
	return len(n.children)
}

func (n *Node) Intervals() []StateInterval {
	return append([]StateInterval(nil), n.intervals...)
}

func (n *Node) headerSize() int {
	if n.typ == CoreNode {
		return coreHeaderSize(n.maxChildren)
	}
	return commonHeaderSize
}

func (n *Node) FreeSpace() int {
	return n.blockSize - n.headerSize() - n.sizeOfIntervals
}

// addInterval stores an interval whose serialized size the caller already
// checked against FreeSpace.
func (n *Node) addInterval(interval StateInterval, size int) {
	idx := sort.Search(len(n.intervals), func(i int) bool {
		return n.intervals[i].End() > interval.End()
	})
	n.intervals = append(n.intervals, StateInterval{})
	copy(n.intervals[idx+1:], n.intervals[idx:])
	n.intervals[idx] = interval
	n.sizeOfIntervals += size
}

func (n *Node) linkNewChild(child *Node) {
	n.children = append(n.children, child.seq)
	n.childStart = append(n.childStart, child.start)
}

func (n *Node) seal(end int64) {
	n.end = end
	n.sealed = true
}

// ChildAt returns the sequence number of the last child starting at or
// before t, or -1 for a node without children.
func (n *Node) ChildAt(t int64) int {
	if len(n.children) == 0 {
		return -1
	}
	idx := sort.Search(len(n.childStart), func(i int) bool {
		return n.childStart[i] > t
	})
	if idx > 0 {
		idx--
	}
	return n.children[idx]
}

func (n *Node) firstCandidate(t int64) int {
	return sort.Search(len(n.intervals), func(i int) bool {
		return n.intervals[i].End() >= t
	})
}

// RelevantInterval returns the interval of this node covering quark at t.
func (n *Node) RelevantInterval(t int64, quark int) (StateInterval, bool) {
	for i := n.firstCandidate(t); i < len(n.intervals); i++ {
		interval := n.intervals[i]
		if interval.Quark() == quark && interval.Start() <= t {
			return interval, true
		}
	}
	return StateInterval{}, false
}

// WriteInfo calls visit for every interval of this node covering t.
func (n *Node) WriteInfo(t int64, visit func(StateInterval)) {
	for i := n.firstCandidate(t); i < len(n.intervals); i++ {
		if n.intervals[i].Start() <= t {
			visit(n.intervals[i])
		}
	}
}

func (n *Node) String() string {
	return fmt.Sprintf("%s node %d (parent %d) [%d, %d] intervals: %d, free: %d",
		n.typ, n.seq, n.parent, n.start, n.end, len(n.intervals), n.FreeSpace())
}

func (n *Node) marshal() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, n.blockSize))
	header := nodeHeader{
		Type:   int8(n.typ),
		Start:  n.start,
		End:    n.end,
		Seq:    int32(n.seq),
		Parent: int32(n.parent),
		Count:  int32(len(n.intervals)),
	}
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, err
	}

	if n.typ == CoreNode {
		children := make([]int32, n.maxChildren)
		childStart := make([]int64, n.maxChildren)
		for i := range n.children {
			children[i] = int32(n.children[i])
			childStart[i] = n.childStart[i]
		}
		if err := binary.Write(buf, binary.LittleEndian, int32(len(n.children))); err != nil {
			return nil, err
		}
		if err := binary.Write(buf, binary.LittleEndian, children); err != nil {
			return nil, err
		}
		if err := binary.Write(buf, binary.LittleEndian, childStart); err != nil {
			return nil, err
		}
	}

	for _, interval := range n.intervals {
		if err := utils.AppendInterval(buf, interval); err != nil {
			return nil, err
		}
	}
	if buf.Len() > n.blockSize {
		return nil, fmt.Errorf("node %d overflows its block: %d > %d bytes", n.seq, buf.Len(), n.blockSize)
	}
	buf.Write(make([]byte, n.blockSize-buf.Len()))
	return buf.Bytes(), nil
}

// unmarshalNode decodes a sealed node block.
func unmarshalNode(data []byte, seq, maxChildren int) (*Node, error) {
	r := bytes.NewReader(data)

	var header nodeHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: node %d: %v", ErrInvalidHistoryFile, seq, err)
	}
	typ := NodeType(header.Type)
	if typ != LeafNode && typ != CoreNode {
		return nil, fmt.Errorf("%w: node %d has unknown type %d", ErrInvalidHistoryFile, seq, header.Type)
	}
	if header.Count < 0 {
		return nil, fmt.Errorf("%w: node %d has %d intervals", ErrInvalidHistoryFile, seq, header.Count)
	}
	if int(header.Seq) != seq {
		return nil, fmt.Errorf("%w: block %d holds node %d", ErrInvalidHistoryFile, seq, header.Seq)
	}

	n := newNode(typ, len(data), maxChildren, seq, int(header.Parent), header.Start)
	n.seal(header.End)

	if typ == CoreNode {
		var nbChildren int32
		if err := binary.Read(r, binary.LittleEndian, &nbChildren); err != nil {
			return nil, fmt.Errorf("%w: node %d: %v", ErrInvalidHistoryFile, seq, err)
		}
		if nbChildren < 0 || int(nbChildren) > maxChildren {
			return nil, fmt.Errorf("%w: node %d has %d children", ErrInvalidHistoryFile, seq, nbChildren)
		}
		children := make([]int32, maxChildren)
		childStart := make([]int64, maxChildren)
		if err := binary.Read(r, binary.LittleEndian, children); err != nil {
			return nil, fmt.Errorf("%w: node %d: %v", ErrInvalidHistoryFile, seq, err)
		}
		if err := binary.Read(r, binary.LittleEndian, childStart); err != nil {
			return nil, fmt.Errorf("%w: node %d: %v", ErrInvalidHistoryFile, seq, err)
		}
		for i := range int(nbChildren) {
			n.children = append(n.children, int(children[i]))
			n.childStart = append(n.childStart, childStart[i])
		}
	}

	intervals, err := utils.ReadIntervals(r, int(header.Count))
	if err != nil {
		return nil, fmt.Errorf("%w: node %d: %v", ErrInvalidHistoryFile, seq, err)
	}
	for _, interval := range intervals {
		size, err := utils.IntervalSize(interval)
		if err != nil {
			return nil, err
		}
		n.addInterval(interval, size)
	}
	return n, nil
}
