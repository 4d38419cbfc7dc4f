package helpers

import (
	"bufio"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Media kinds reported by DetectKind.
const (
	KindImage = "image"
	KindVideo = "video"
)

// sniffLen matches the detection window used by mimetype.
const sniffLen = 3072

// DetectKind classifies r as image or video from its leading bytes, falling back
// to the declared content type. The returned reader replays the sniffed bytes.
func DetectKind(declared string, r io.Reader) (string, string, io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", "", nil, err
	}
	mt := mimetype.Detect(head).String()
	if kind, ok := kindOf(mt); ok {
		return kind, mt, br, nil
	}
	if kind, ok := kindOf(declared); ok {
		return kind, declared, br, nil
	}
	return "", mt, br, nil
}

func kindOf(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "video/"):
		return KindVideo, true
	case strings.HasPrefix(ct, "image/"):
		return KindImage, true
	}
	return "", false
}
