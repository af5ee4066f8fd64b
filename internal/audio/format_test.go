package audio

import (
	"testing"
)

func pad(b []byte) []byte {
	out := make([]byte, 32)
	copy(out, b)
	return out
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected Format
	}{
		{"webm ebml", pad([]byte{0x1A, 0x45, 0xDF, 0xA3}), FormatWebM},
		{"wav riff", pad([]byte("RIFF\x24\x08\x00\x00WAVE")), FormatWAV},
		{"riff without wave", pad([]byte("RIFF\x24\x08\x00\x00AVI ")), FormatWebM},
		{"mp3 FF FB", pad([]byte{0xFF, 0xFB}), FormatMP3},
		{"mp3 FF F3", pad([]byte{0xFF, 0xF3}), FormatMP3},
		{"mp3 FF F2", pad([]byte{0xFF, 0xF2}), FormatMP3},
		{"mp3 id3", pad([]byte("ID3\x04")), FormatMP3},
		{"aac adts is not mp3", pad([]byte{0xFF, 0xF1}), FormatWebM},
		{"m4a ftyp", pad([]byte("\x00\x00\x00\x20ftypM4A ")), FormatM4A},
		{"unknown", pad([]byte("OggS")), FormatWebM},
		{"all zeros", make([]byte, 64), FormatWebM},
		{"empty", nil, FormatWebM},
		{"short mp3 header", []byte{0xFF, 0xFB, 0x00, 0x00}, FormatWebM},
		{"short wav header", []byte("RIFF\x00\x00\x00\x00WAV"), FormatWebM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.input); got != tt.expected {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDetectFormat_PriorityWebMFirst(t *testing.T) {
	// EBML header wins even if an ftyp box appears at offset 4.
	b := pad([]byte{0x1A, 0x45, 0xDF, 0xA3, 'f', 't', 'y', 'p'})
	if got := DetectFormat(b); got != FormatWebM {
		t.Errorf("expected webm to take priority, got %q", got)
	}
}

func TestDetectFormat_ShortInputsNeverFail(t *testing.T) {
	for n := 0; n < headerSize; n++ {
		b := make([]byte, n)
		for i := range b {
			b[i] = 0xFF
		}
		if got := DetectFormat(b); got != FormatWebM {
			t.Errorf("len %d: expected webm, got %q", n, got)
		}
	}
}

func TestMimeType(t *testing.T) {
	tests := []struct {
		format   Format
		expected string
	}{
		{FormatWebM, "audio/webm"},
		{FormatWAV, "audio/wav"},
		{FormatMP3, "audio/mpeg"},
		{FormatM4A, "audio/m4a"},
		{Format("mp4"), "audio/mp4"},
		{Format("mpga"), "audio/mpeg"},
		{Format("flac"), "audio/webm"},
		{Format(""), "audio/webm"},
	}

	for _, tt := range tests {
		if got := MimeType(tt.format); got != tt.expected {
			t.Errorf("MimeType(%q) = %q, want %q", tt.format, got, tt.expected)
		}
	}
}

func TestFormatFromMimeType(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		ok       bool
	}{
		{"audio/webm;codecs=opus", FormatWebM, true},
		{"audio/webm", FormatWebM, true},
		{"audio/wav", FormatWAV, true},
		{"audio/x-wav", FormatWAV, true},
		{"audio/mpeg", FormatMP3, true},
		{"audio/mp4", FormatM4A, true},
		{"application/octet-stream", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := FormatFromMimeType(tt.input)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("FormatFromMimeType(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestBlob_ResolvedFormat(t *testing.T) {
	wav := pad([]byte("RIFF\x24\x08\x00\x00WAVE"))

	untagged := NewBlob(wav, "")
	if untagged.ResolvedFormat() != FormatWAV {
		t.Errorf("expected sniffed wav, got %q", untagged.ResolvedFormat())
	}

	tagged := NewBlob(wav, FormatMP3)
	if tagged.ResolvedFormat() != FormatMP3 {
		t.Errorf("expected declared tag to win, got %q", tagged.ResolvedFormat())
	}

	if !NewBlob(nil, "").Empty() {
		t.Error("expected empty blob")
	}
	if NewBlob(wav, "").WithID("take-1").ID() != "take-1" {
		t.Error("expected id to be carried")
	}
}
