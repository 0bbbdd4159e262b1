package splitrand

import "math/bits"

const (
	// goldenGamma is the odd integer closest to 2^64/phi.
	goldenGamma uint64 = 0x9e3779b97f4a7c15

	// doubleGamma is 2*goldenGamma mod 2^64.
	doubleGamma uint64 = 0x3c6ef372fe94f82a

	// doubleUnit scales the top 53 bits of a draw into [0, 1).
	doubleUnit = 1.0 / (1 << 53)
)

// mix64 is Stafford's variant 13 of the MurmurHash3 finalizer.
func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// mix32 returns the upper 32 bits of Stafford's variant 4.
func mix32(z uint64) uint32 {
	z = (z ^ (z >> 33)) * 0x62a9d9ed799705f5
	return uint32(((z ^ (z >> 28)) * 0xcb24d0a5c88c35b3) >> 32)
}

// mixGamma derives an odd increment with at least 24 bit transitions.
func mixGamma(z uint64) uint64 {
	z = (z ^ (z >> 33)) * 0xff51afd7ed558ccd
	z = (z ^ (z >> 33)) * 0xc4ceb9fe1a85ec53
	z = (z ^ (z >> 33)) | 1
	if bits.OnesCount64(z^(z>>1)) < 24 {
		z ^= 0xaaaaaaaaaaaaaaaa
	}
	return z
}
