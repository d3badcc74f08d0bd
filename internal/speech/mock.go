package speech

import (
	"context"
	"encoding/binary"
)

const MockTranscript = "Hello AI, how are you today?"

// MockTranscriber ignores the audio and never touches the network.
type MockTranscriber struct{}

func (MockTranscriber) Transcribe(context.Context, Clip) (string, error) {
	return MockTranscript, nil
}

// MockSynthesizer returns SilentWAV for any text.
type MockSynthesizer struct{}

func (MockSynthesizer) Synthesize(context.Context, string) ([]byte, error) {
	return SilentWAV(), nil
}

// SilentWAV is a valid 44-byte RIFF/WAVE container (16 kHz mono PCM16) with no samples.
func SilentWAV() []byte {
	const (
		sampleRate    = 16000
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8

	buf := make([]byte, 44)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], 36) // 36 + data size
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], channels)
	binary.LittleEndian.PutUint32(buf[24:28], sampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], 0)
	return buf
}
