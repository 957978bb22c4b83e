package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	MaxMidstates       = 4
	MidstateLen        = 32
	jobPacketHeaderLen = 18
	JobHeader          = TypeJob | GroupSingle | CmdWrite
)

var (
	ErrMidstateCount = errors.New("midstate count must be 1, 2 or 4")
	ErrNotAJob       = errors.New("frame is not a job")
)

func ValidMidstateCount(count int) bool {
	return count == 1 || count == 2 || count == 4
}

// Job is the work packet for one header template. Multi-byte fields hold the
// little-endian words found in the serialized block header.
type Job struct {
	JobId          byte
	StartingNonce  uint32
	NBits          uint32
	NTime          uint32
	MerkleRootTail uint32
	Midstates      [][MidstateLen]byte
}

func (j *Job) PayloadLen() int {
	return jobPacketHeaderLen + MidstateLen*len(j.Midstates)
}

// Encode serializes the job frame into buf.
func (j *Job) Encode(buf *FrameBuffer) ([]byte, error) {
	count := len(j.Midstates)
	if !ValidMidstateCount(count) {
		return nil, ErrMidstateCount
	}
	var payload [MaxPayloadLen]byte
	payload[0] = j.JobId
	payload[1] = byte(count)
	binary.LittleEndian.PutUint32(payload[2:], j.StartingNonce)
	binary.LittleEndian.PutUint32(payload[6:], j.NBits)
	binary.LittleEndian.PutUint32(payload[10:], j.NTime)
	binary.LittleEndian.PutUint32(payload[14:], j.MerkleRootTail)
	for i := range j.Midstates {
		copy(payload[jobPacketHeaderLen+MidstateLen*i:], j.Midstates[i][:])
	}
	return EncodeFrame(buf, JobHeader, payload[:j.PayloadLen()])
}

func (j *Job) MarshalBinary() ([]byte, error) {
	var buf FrameBuffer
	data, err := j.Encode(&buf)
	if err != nil {
		return nil, err
	}
	return append([]byte{}, data...), nil
}

func (j *Job) UnmarshalBinary(data []byte) error {
	frame, err := DecodeFrame(data)
	if err != nil {
		return err
	}
	if !frame.Header.IsJob() {
		return ErrNotAJob
	}
	payload := frame.Payload
	if len(payload) < jobPacketHeaderLen {
		return ErrBadLength
	}
	count := int(payload[1])
	if !ValidMidstateCount(count) {
		return ErrMidstateCount
	}
	if len(payload) != jobPacketHeaderLen+MidstateLen*count {
		return ErrBadLength
	}
	j.JobId = payload[0]
	j.StartingNonce = binary.LittleEndian.Uint32(payload[2:])
	j.NBits = binary.LittleEndian.Uint32(payload[6:])
	j.NTime = binary.LittleEndian.Uint32(payload[10:])
	j.MerkleRootTail = binary.LittleEndian.Uint32(payload[14:])
	j.Midstates = make([][MidstateLen]byte, count)
	for i := range j.Midstates {
		copy(j.Midstates[i][:], payload[jobPacketHeaderLen+MidstateLen*i:])
	}
	return nil
}

func (j *Job) String() string {
	return fmt.Sprintf("job %d (%d midstates, ntime %08x)", j.JobId, len(j.Midstates), j.NTime)
}
