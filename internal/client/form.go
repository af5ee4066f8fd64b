package client

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"

	"voice-translate-service/internal/audio"
	"voice-translate-service/internal/service/translate"
)

// voiceForm encodes the /voice-translate multipart body.
func voiceForm(blob audio.Blob, source, target string, style translate.Style) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{"target": target}
	if source != "" {
		fields["source"] = source
	}
	if style != "" {
		fields["style"] = string(style)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	format := blob.ResolvedFormat()
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename="recording.%s"`, format.Extension()))
	hdr.Set("Content-Type", audio.MimeType(format))
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, "", fmt.Errorf("create audio part: %w", err)
	}
	if _, err := part.Write(blob.Bytes()); err != nil {
		return nil, "", fmt.Errorf("write audio part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
