// Package audio provides the sample-format primitives used by the Resonate
// streaming pipeline: mu-law companding expansion, PCM normalization, and
// WAV container encoding. All functions are pure and carry no cross-call
// state, so they are safe for concurrent use.
package audio

// muLawBias is the linear bias added back during companding expansion.
const muLawBias = 0x84

// DecodeMuLaw expands mu-law companded bytes into 16-bit linear PCM samples.
// Each byte decodes independently: sign in bit 7, exponent in bits 4-6,
// mantissa in bits 0-3. The reconstructed magnitude is
// (mantissa << (exponent + 3)) + bias, negated when the sign bit is set.
func DecodeMuLaw(frame []byte) []int16 {
	out := make([]int16, len(frame))
	for i, b := range frame {
		exponent := (b >> 4) & 0x07
		mantissa := b & 0x0F
		magnitude := (int16(mantissa) << (exponent + 3)) + muLawBias
		if b&0x80 != 0 {
			magnitude = -magnitude
		}
		out[i] = magnitude
	}
	return out
}

// Normalize converts 16-bit PCM samples to float32 in [-1.0, 1.0).
func Normalize(pcm []int16) []float32 {
	out := make([]float32, len(pcm))
	for i, s := range pcm {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// DecodeAndNormalize is the composition of [DecodeMuLaw] and [Normalize],
// avoiding the intermediate allocation for the hot ingest path.
func DecodeAndNormalize(frame []byte) []float32 {
	out := make([]float32, len(frame))
	for i, b := range frame {
		exponent := (b >> 4) & 0x07
		mantissa := b & 0x0F
		magnitude := (int16(mantissa) << (exponent + 3)) + muLawBias
		if b&0x80 != 0 {
			magnitude = -magnitude
		}
		out[i] = float32(magnitude) / 32768.0
	}
	return out
}
