package audio

// Blob is a captured or uploaded audio payload. It is immutable once
// created: Bytes returns the backing slice, which callers must not modify,
// so a Blob may be shared between readers without synchronization.
type Blob struct {
	data   []byte
	format Format
	id     string
}

// NewBlob wraps data with an optional format tag. An empty tag means the
// format has not been declared and should be sniffed.
func NewBlob(data []byte, format Format) Blob {
	return Blob{data: data, format: format}
}

// WithID returns a copy of b carrying an identifier.
func (b Blob) WithID(id string) Blob {
	b.id = id
	return b
}

// ID returns the blob identifier, if any.
func (b Blob) ID() string { return b.id }

// Bytes returns the audio payload.
func (b Blob) Bytes() []byte { return b.data }

// Len returns the payload size in bytes.
func (b Blob) Len() int { return len(b.data) }

// Empty reports whether the blob carries no audio.
func (b Blob) Empty() bool { return len(b.data) == 0 }

// Format returns the declared format tag, or "" when untagged.
func (b Blob) Format() Format { return b.format }

// ResolvedFormat returns the declared tag, sniffing the payload when the
// blob is untagged.
func (b Blob) ResolvedFormat() Format {
	if b.format != "" {
		return b.format
	}
	return DetectFormat(b.data)
}
