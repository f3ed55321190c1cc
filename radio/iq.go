package radio

import "math"

// iq8 maps an unsigned sample byte to a component centered on zero.
var iq8 [256]float32

func init() {
	for i := range iq8 {
		iq8[i] = float32(i)/127.5 - 1.0
	}
}

// DecodeIQ8 converts interleaved u8 I/Q pairs into complex samples, reusing
// dst when it has the capacity. A trailing odd byte is ignored.
func DecodeIQ8(dst []complex64, src []byte) []complex64 {
	n := len(src) / 2
	if cap(dst) < n {
		dst = make([]complex64, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = complex(iq8[src[2*i]], iq8[src[2*i+1]])
	}
	return dst
}

// EncodeIQ8 is the inverse of DecodeIQ8; components are clamped to the byte range.
func EncodeIQ8(dst []byte, src []complex64) []byte {
	n := 2 * len(src)
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i, v := range src {
		dst[2*i] = encodeComponent(real(v))
		dst[2*i+1] = encodeComponent(imag(v))
	}
	return dst
}

func encodeComponent(v float32) byte {
	x := math.Round((float64(v) + 1.0) * 127.5)
	if x < 0 {
		return 0
	} else if x > 255 {
		return 255
	}
	return byte(x)
}
