package utils

type MidstateBytes []byte

func (mb MidstateBytes) Reverse() {
	for i, j := 0, len(mb)-1; i < j; i, j = i+1, j-1 {
		mb[i], mb[j] = mb[j], mb[i]
	}
}

// HeaderMidstate hashes the first 64 header bytes and returns the state in
// the byte order the hash chips expect.
func HeaderMidstate(header []byte) [32]byte {
	midstate := Midstate(header[:64])
	MidstateBytes(midstate[:]).Reverse()
	return midstate
}
