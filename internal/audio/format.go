// Package audio provides audio format detection and the immutable Blob
// handed from the recording session to the transcription stage.
package audio

import (
	"bytes"
	"mime"
	"strings"
)

// Format is a container/codec tag inferred from a byte signature.
type Format string

const (
	FormatWebM Format = "webm"
	FormatWAV  Format = "wav"
	FormatMP3  Format = "mp3"
	FormatM4A  Format = "m4a"
)

// MaxUploadBytes is the largest payload accepted by the transcription stage.
const MaxUploadBytes = 25 * 1024 * 1024

// headerSize is the signature window inspected by DetectFormat.
const headerSize = 12

var (
	sigEBML = []byte{0x1A, 0x45, 0xDF, 0xA3}
	sigRIFF = []byte("RIFF")
	sigWAVE = []byte("WAVE")
	sigID3  = []byte("ID3")
	sigFtyp = []byte("ftyp")
)

// DetectFormat returns the format matching the first 12 bytes of b.
// Signatures are checked in order WebM, WAV, MP3, M4A. Inputs shorter than
// the signature window, or matching nothing, are reported as WebM, the
// format produced by the capture path.
func DetectFormat(b []byte) Format {
	if len(b) < headerSize {
		return FormatWebM
	}
	h := b[:headerSize]

	switch {
	case bytes.HasPrefix(h, sigEBML):
		return FormatWebM
	case bytes.HasPrefix(h, sigRIFF) && bytes.Equal(h[8:12], sigWAVE):
		return FormatWAV
	case isMPEGFrameSync(h) || bytes.HasPrefix(h, sigID3):
		return FormatMP3
	case bytes.Equal(h[4:8], sigFtyp):
		return FormatM4A
	}
	return FormatWebM
}

// isMPEGFrameSync matches FF Fx with a non-reserved layer, which keeps
// AAC ADTS headers (FF F1, FF F9) out of the MP3 bucket.
func isMPEGFrameSync(h []byte) bool {
	return h[0] == 0xFF && h[1]&0xF0 == 0xF0 && h[1]&0x06 != 0
}

var mimeTypes = map[string]string{
	"webm": "audio/webm",
	"wav":  "audio/wav",
	"mp3":  "audio/mpeg",
	"mp4":  "audio/mp4",
	"m4a":  "audio/m4a",
	"mpeg": "audio/mpeg",
	"mpga": "audio/mpeg",
}

// MimeType returns the MIME type for f, defaulting to audio/webm.
func MimeType(f Format) string {
	if mt, ok := mimeTypes[string(f)]; ok {
		return mt
	}
	return "audio/webm"
}

// Extension returns the file extension used when naming uploads.
func (f Format) Extension() string {
	if f == "" {
		return string(FormatWebM)
	}
	return string(f)
}

// FormatFromMimeType parses a declared content type such as
// "audio/webm;codecs=opus". The second return value is false when the type
// is not a recognized audio format.
func FormatFromMimeType(contentType string) (Format, bool) {
	if contentType == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch mediaType {
	case "audio/webm", "video/webm":
		return FormatWebM, true
	case "audio/wav", "audio/wave", "audio/x-wav", "audio/vnd.wave":
		return FormatWAV, true
	case "audio/mpeg", "audio/mp3", "audio/mpga":
		return FormatMP3, true
	case "audio/m4a", "audio/x-m4a", "audio/mp4", "audio/aac":
		return FormatM4A, true
	}
	return "", false
}
