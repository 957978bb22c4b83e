package protocol

type MessageSeparator [2]byte

var ResponsePreamble = MessageSeparator{0xAA, 0x55}

// Search returns the positions of the first complete separator in message, or -1, -1.
func (s MessageSeparator) Search(message []byte) (int, int) {
	var nextPos int
	messageLen := len(message)
	for i := 0; i < messageLen; i++ {
		if message[i] == s[0] {
			nextPos = i + 1
			if nextPos < messageLen && message[nextPos] == s[1] {
				return i, nextPos
			}
		}
	}
	return -1, -1
}

// Partial reports whether message ends with the first separator byte.
func (s MessageSeparator) Partial(message []byte) bool {
	return len(message) > 0 && message[len(message)-1] == s[0]
}
