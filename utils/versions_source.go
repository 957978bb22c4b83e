package utils

import (
	"gonum.org/v1/gonum/stat/combin"
	"math/bits"
)

const DefaultVersionBits = 2

// VersionSource enumerates header versions obtained by flipping up to maxVersionBits
// of the bits the pool allows to roll.
type VersionSource struct {
	Version        Version
	Mask           Version
	maxVersionBits int
	bitCount       int
	RolledVersions []Version
	pos            int
}

func NewVersionSource(version Version, mask Version, maxVersionBits int) *VersionSource {
	bitCount := bits.OnesCount32(uint32(mask))
	if maxVersionBits > bitCount {
		maxVersionBits = bitCount
	}
	vs := &VersionSource{
		Version:        version,
		Mask:           mask,
		bitCount:       bitCount,
		maxVersionBits: maxVersionBits,
	}
	vs.init()
	return vs
}

func (vs *VersionSource) init() {
	var tmpMask Version
	bitPositions := make([]int, 0, vs.bitCount)
	for i := 0; i < 32; i++ {
		if vs.Mask&(1<<i) != 0 {
			bitPositions = append(bitPositions, i)
		}
	}
	base := vs.Version &^ vs.Mask
	vs.RolledVersions = []Version{vs.Version}
	for i := 1; i <= vs.maxVersionBits; i++ {
		for _, combination := range combin.Combinations(vs.bitCount, i) {
			tmpMask = 0
			for _, bitPos := range combination {
				tmpMask |= 1 << bitPositions[bitPos]
			}
			if rolled := base | tmpMask; rolled != vs.Version {
				vs.RolledVersions = append(vs.RolledVersions, rolled)
			}
		}
	}
}

// Retrieve fills dest with the next versions, wrapping around when exhausted.
func (vs *VersionSource) Retrieve(dest []Version) {
	rolledCount := len(vs.RolledVersions)
	for i := range dest {
		if vs.pos >= rolledCount {
			vs.pos = 0
		}
		dest[i] = vs.RolledVersions[vs.pos]
		vs.pos += 1
	}
}

// Bits returns the rolled part of version as submitted to the pool.
func (vs *VersionSource) Bits(version Version) Version {
	return version & vs.Mask
}

func (vs *VersionSource) ResetPos() {
	vs.pos = 0
}

func (vs *VersionSource) Len() int {
	return len(vs.RolledVersions)
}
