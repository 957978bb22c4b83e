package protocol

import "sync/atomic"

const parserBufferLen = 4096

// ResponseParser accumulates raw bytes read from the link and cuts them into
// nonce responses, resynchronising on the next preamble after corrupt input.
type ResponseParser struct {
	buf            []byte
	checksumErrors uint64
	discarded      uint64
}

func NewResponseParser() *ResponseParser {
	return &ResponseParser{buf: make([]byte, 0, parserBufferLen)}
}

func (rp *ResponseParser) Write(data []byte) (int, error) {
	rp.buf = append(rp.buf, data...)
	if len(rp.buf) > parserBufferLen {
		drop := len(rp.buf) - parserBufferLen
		atomic.AddUint64(&rp.discarded, uint64(drop))
		rp.buf = append(rp.buf[:0], rp.buf[drop:]...)
	}
	return len(data), nil
}

// Next returns the next valid response in the buffer, or false when more input is needed.
func (rp *ResponseParser) Next() (NonceResponse, bool) {
	var resp NonceResponse
	for {
		start, _ := ResponsePreamble.Search(rp.buf)
		if start == -1 {
			keep := 0
			if ResponsePreamble.Partial(rp.buf) {
				keep = 1
			}
			rp.discard(len(rp.buf) - keep)
			return resp, false
		}
		rp.discard(start)
		if len(rp.buf) < NonceResponseLen {
			return resp, false
		}
		if err := resp.UnmarshalBinary(rp.buf[:NonceResponseLen]); err != nil {
			atomic.AddUint64(&rp.checksumErrors, 1)
			rp.discard(1)
			continue
		}
		rp.consume(NonceResponseLen)
		return resp, true
	}
}

func (rp *ResponseParser) discard(n int) {
	if n <= 0 {
		return
	}
	atomic.AddUint64(&rp.discarded, uint64(n))
	rp.consume(n)
}

func (rp *ResponseParser) consume(n int) {
	rp.buf = append(rp.buf[:0], rp.buf[n:]...)
}

// Reset drops buffered input and returns how many bytes were dropped.
func (rp *ResponseParser) Reset() int {
	n := len(rp.buf)
	rp.discard(n)
	return n
}

func (rp *ResponseParser) Buffered() int {
	return len(rp.buf)
}

func (rp *ResponseParser) ChecksumErrors() uint64 {
	return atomic.LoadUint64(&rp.checksumErrors)
}

func (rp *ResponseParser) Discarded() uint64 {
	return atomic.LoadUint64(&rp.discarded)
}
