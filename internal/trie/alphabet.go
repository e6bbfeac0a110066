package trie

// The trie only stores printable ASCII. Offsets into a node's child table are
// the byte minus AlphabetMin, so ascending offsets are ascending byte values.
const (
	AlphabetMin byte = ' '
	AlphabetMax byte = '~'

	// AlphabetSize is the number of child slots in every node.
	AlphabetSize = int(AlphabetMax-AlphabetMin) + 1
)

// Offset maps b to its child slot. ok is false for bytes outside the alphabet.
func Offset(b byte) (offset int, ok bool) {
	if b < AlphabetMin || b > AlphabetMax {
		return 0, false
	}
	return int(b - AlphabetMin), true
}

// Symbol is the inverse of Offset.
func Symbol(offset int) byte {
	return AlphabetMin + byte(offset)
}

// Validate reports the first byte of word that falls outside the alphabet.
func Validate(word []byte) error {
	for i, b := range word {
		if _, ok := Offset(b); !ok {
			return &InvalidByteError{Byte: b, Pos: i}
		}
	}
	return nil
}
