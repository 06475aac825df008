package audio_test

import (
	"testing"

	"github.com/ajaytemal-source/Resonate/pkg/audio"
)

func TestDecodeMuLaw(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   byte
		want int16
	}{
		{"zero byte", 0x00, 0x84},
		{"max mantissa no exponent", 0x0F, (0x0F << 3) + 0x84},
		{"max positive", 0x7F, (0x0F << 10) + 0x84},
		{"sign bit negates", 0x80, -0x84},
		{"max negative", 0xFF, -((0x0F << 10) + 0x84)},
		{"mid exponent", 0x35, (0x05 << 6) + 0x84},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := audio.DecodeMuLaw([]byte{tt.in})
			if len(got) != 1 {
				t.Fatalf("len = %d, want 1", len(got))
			}
			if got[0] != tt.want {
				t.Errorf("DecodeMuLaw(%#02x) = %d, want %d", tt.in, got[0], tt.want)
			}
		})
	}
}

func TestDecodeMuLaw_OneSamplePerByte(t *testing.T) {
	t.Parallel()
	frame := make([]byte, 1234)
	if got := audio.DecodeMuLaw(frame); len(got) != 1234 {
		t.Errorf("len = %d, want 1234", len(got))
	}
}

func TestNormalize_Range(t *testing.T) {
	t.Parallel()
	got := audio.Normalize([]int16{-32768, 0, 32767})
	if got[0] != -1.0 {
		t.Errorf("min sample = %v, want -1.0", got[0])
	}
	if got[1] != 0 {
		t.Errorf("zero sample = %v, want 0", got[1])
	}
	if got[2] >= 1.0 {
		t.Errorf("max sample = %v, want < 1.0", got[2])
	}
}

func TestDecodeAndNormalize_MatchesComposition(t *testing.T) {
	t.Parallel()
	frame := []byte{0x00, 0x3A, 0x7F, 0x80, 0xC5, 0xFF}

	want := audio.Normalize(audio.DecodeMuLaw(frame))
	got := audio.DecodeAndNormalize(frame)

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}
