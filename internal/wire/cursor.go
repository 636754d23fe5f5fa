package wire

// cursor is the progress of one nesting level: the message being coded at
// that level plus the sub-state of the field currently in progress.
type cursor struct {
	// message
	msg   Message
	typ   *Type
	state int
	hdr   bool

	// fixed-width value
	tmp    [16]byte
	tmpLen int
	tmpOff int

	// length-prefixed array
	arrHdr  bool
	arrBody []byte
	arrOff  int

	// list or map
	colHdr  bool
	colLen  int
	colIdx  int
	colAcc  any
	colKeys any
	keyDone bool
	key     any

	// chunked payload
	chunk *chunkState
}

func (c *cursor) reset() {
	*c = cursor{}
}

func (c *cursor) resetArray() {
	c.arrHdr, c.arrBody, c.arrOff = false, nil, 0
}

func (c *cursor) resetCollection() {
	c.colHdr, c.colLen, c.colIdx = false, 0, 0
	c.colAcc, c.colKeys, c.key = nil, nil, nil
	c.keyDone = false
}

// stack is the nesting stack shared by Writer and Reader.
type stack struct {
	levels []*cursor
	depth  int
}

func newStack() stack {
	return stack{levels: []*cursor{{}}}
}

func (s *stack) top() *cursor {
	return s.levels[s.depth]
}

func (s *stack) forward() *cursor {
	s.depth++
	if s.depth == len(s.levels) {
		s.levels = append(s.levels, &cursor{})
	}
	return s.levels[s.depth]
}

// backward leaves the current level, clearing it once its value completed.
func (s *stack) backward(done bool) {
	if done {
		s.levels[s.depth].reset()
	}
	s.depth--
}

func (s *stack) clear() {
	for _, c := range s.levels {
		c.reset()
	}
	s.depth = 0
}
