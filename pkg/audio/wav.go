package audio

import "encoding/binary"

// bitsPerSample is fixed at 16 for the signed little-endian PCM payload the
// transcription and tone collaborators expect.
const bitsPerSample = 16

// EncodeWAV clamps normalized float32 samples to [-1.0, 1.0], quantizes them
// to 16-bit signed PCM, and wraps the result in a standard single-channel
// RIFF/WAV container at the given sample rate. The returned bytes are ready
// for direct inclusion in a multipart upload.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	const channels = 1
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := len(samples) * 2

	buf := make([]byte, 44+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // sub-chunk size (PCM)
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // audio format: PCM
	binary.LittleEndian.PutUint16(buf[22:24], channels)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(buf[44+i*2:46+i*2], uint16(int16(s*32767.0)))
	}

	return buf
}

// WAVSampleCount returns the number of 16-bit mono samples in a WAV container
// produced by [EncodeWAV]. Returns 0 for buffers shorter than the header.
func WAVSampleCount(wav []byte) int {
	if len(wav) < 44 {
		return 0
	}
	return int(binary.LittleEndian.Uint32(wav[40:44])) / 2
}
