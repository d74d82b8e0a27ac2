package driver

import (
	"strings"

	"github.com/muskater/libelektra/store"
)

// parentFrame, indexFrame, and tableArrayFrame are the three independent
// LIFO stack elements of spec.md §3 (ParentFrame/IndexFrame/
// TableArrayFrame). Per §9, they are kept as three independent slices
// rather than unified into one sum-typed stack, to preserve the subtle
// pop ordering the driver relies on.
type parentFrame struct {
	key *store.Key
}

type indexFrame struct {
	value uint64
}

type tableArrayFrame struct {
	key       *store.Key
	currIndex uint64
}

// parentStack is never empty during a successful parse (Invariant 1):
// its bottom is always a duplicate of the root key.
type parentStack struct {
	frames []parentFrame
}

func (s *parentStack) push(k *store.Key) {
	k.IncRef()
	s.frames = append(s.frames, parentFrame{key: k})
}

func (s *parentStack) pop() *store.Key {
	if len(s.frames) == 0 {
		return nil
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	top.key.DecRef()
	return top.key
}

func (s *parentStack) top() *store.Key {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1].key
}

func (s *parentStack) empty() bool { return len(s.frames) == 0 }

type indexStack struct {
	frames []indexFrame
}

func (s *indexStack) push(v uint64) {
	s.frames = append(s.frames, indexFrame{value: v})
}

func (s *indexStack) pop() {
	if len(s.frames) == 0 {
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *indexStack) top() *indexFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

func (s *indexStack) empty() bool { return len(s.frames) == 0 }

type tableArrayStack struct {
	frames []tableArrayFrame
}

func (s *tableArrayStack) push(k *store.Key) {
	k.IncRef()
	s.frames = append(s.frames, tableArrayFrame{key: k, currIndex: 0})
}

func (s *tableArrayStack) pop() *store.Key {
	if len(s.frames) == 0 {
		return nil
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	top.key.DecRef()
	return top.key
}

func (s *tableArrayStack) top() *tableArrayFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

func (s *tableArrayStack) empty() bool { return len(s.frames) == 0 }

// buildTableArrayKeyName composes the indexed header name from every
// frame currently on the stack, outermost first: each frame contributes
// its own name segment (relative to its enclosing frame, since header
// names are always absolute paths from the document root) followed by
// its own "#currIndex". This way a nested array of tables' indexed name
// embeds every enclosing element's index, not just its own innermost
// one, matching buildTableArrayKeyName in the original driver.
func buildTableArrayKeyName(s *tableArrayStack) *store.Key {
	k := s.top().key.Dup()
	var name, prevAbs string
	for _, f := range s.frames {
		abs := f.key.Name()
		seg := abs
		if prevAbs != "" {
			seg = strings.TrimPrefix(abs, prevAbs+"/")
		}
		if name == "" {
			name = seg
		} else {
			name = name + "/" + seg
		}
		name = name + "/" + store.IndexBaseName(f.currIndex)
		prevAbs = abs
	}
	k.Rename(name)
	return k
}
