package utils

import (
	"fmt"
	"time"
)

type Nonce64 uint64
type Nonce32 uint32

func (n Nonce64) String() string {
	return fmt.Sprintf("%016x", uint64(n))
}

func (n Nonce32) String() string {
	return fmt.Sprintf("%08x", uint32(n))
}

// NTime is the header timestamp in seconds.
type NTime uint32

func (n NTime) String() string {
	return fmt.Sprintf("%08x", uint32(n))
}

func (n NTime) Time() time.Time {
	return time.Unix(int64(n), 0)
}

type Version uint32

func (v Version) String() string {
	return fmt.Sprintf("%08x", uint32(v))
}

// NBits is the compact network target of a header.
type NBits uint32

func (n NBits) String() string {
	return fmt.Sprintf("%08x", uint32(n))
}
