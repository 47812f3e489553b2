// Package screenshot turns uploaded payment screenshots into data URLs.
package screenshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrEmpty    = errors.New("screenshot is empty")
	ErrTooLarge = errors.New("screenshot is too large")
)

const DefaultMaxBytes = 5 << 20

type Encoder struct {
	MaxBytes int64
}

func NewEncoder(maxBytes int64) *Encoder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Encoder{MaxBytes: maxBytes}
}

// Encode returns "data:<mime>;base64,<payload>".
func (e *Encoder) Encode(ctx context.Context, r io.Reader) (string, error) {
	if r == nil {
		return "", ErrEmpty
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, e.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read screenshot: %w", err)
	}
	switch {
	case n == 0:
		return "", ErrEmpty
	case n > e.MaxBytes:
		return "", fmt.Errorf("%w: over %d bytes", ErrTooLarge, e.MaxBytes)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mime := http.DetectContentType(buf.Bytes())
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
