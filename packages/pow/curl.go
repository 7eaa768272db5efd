package pow

// region Curl-P-81 ////////////////////////////////////////////////////////////////////////////////////////////////////

const (
	// hashTrits is the length of a Curl-P hash in trits.
	hashTrits = 243
	// stateTrits is the size of the Curl-P sponge state in trits.
	stateTrits = 3 * hashTrits
	// curlRounds is the number of rounds of the Curl-P-81 transformation.
	curlRounds = 81
)

var (
	truthTable = [11]int8{1, 0, -1, 2, 1, -1, 0, 2, -1, 1, 0}
	indices    [stateTrits + 1]int
)

func init() {
	for i := 0; i < stateTrits; i++ {
		if indices[i] < 365 {
			indices[i+1] = indices[i] + 364
		} else {
			indices[i+1] = indices[i] - 365
		}
	}
}

// curlHash absorbs exactly one block of hashTrits trits and squeezes one hash from the sponge.
func curlHash(block *[hashTrits]int8) (hash [hashTrits]int8) {
	var state [stateTrits]int8
	copy(state[:], block[:])
	transform(&state)
	copy(hash[:], state[:hashTrits])

	return hash
}

func transform(state *[stateTrits]int8) {
	var scratch [stateTrits]int8
	for r := 0; r < curlRounds; r++ {
		scratch = *state
		for i := 0; i < stateTrits; i++ {
			state[i] = truthTable[scratch[indices[i]]+(scratch[indices[i+1]]<<2)+5]
		}
	}
}

// trailingZeroTrits returns the number of zero trits at the end of the hash.
func trailingZeroTrits(hash *[hashTrits]int8) (zeros int) {
	for i := hashTrits - 1; i >= 0 && hash[i] == 0; i-- {
		zeros++
	}

	return zeros
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region b1t6 /////////////////////////////////////////////////////////////////////////////////////////////////////////

const tryteRadix = 27

// encodeB1T6 writes every byte of src as two balanced trytes (six trits) into dst and returns the number of trits
// written.
func encodeB1T6(dst []int8, src []byte) int {
	n := 0
	for _, b := range src {
		v := int(int8(b)) + (tryteRadix/2)*tryteRadix + tryteRadix/2
		quo, rem := v/tryteRadix, v%tryteRadix
		putTryte(dst[n:], rem-tryteRadix/2)
		putTryte(dst[n+3:], quo-tryteRadix/2)
		n += 6
	}

	return n
}

// putTryte writes the balanced tryte value v as three little-endian trits.
func putTryte(dst []int8, v int) {
	for i := 0; i < 3; i++ {
		rem := ((v % 3) + 3) % 3
		if rem == 2 {
			rem = -1
		}
		dst[i] = int8(rem)
		v = (v - rem) / 3
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
