package camera

import (
	"fmt"
	"sync/atomic"
)

const DefaultPrefix = "HIKROBOT-IMG-"

// Sequence hands out the lifetime file index. The zero value starts at 0
// and is safe for concurrent use.
type Sequence struct {
	next atomic.Uint64
}

func (s *Sequence) Next() uint64 {
	return s.next.Add(1) - 1
}

// FileNamer builds <prefix><lifetimeIndex>_<frameNumber>.jpg, consuming
// one index per name.
type FileNamer struct {
	Prefix   string
	Sequence *Sequence
}

// Next returns the consumed index with the name.
func (n FileNamer) Next(frameNumber int) (uint64, string) {
	index := n.Sequence.Next()
	return index, fmt.Sprintf("%s%d_%d.jpg", n.Prefix, index, frameNumber)
}
