package utils

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// compressedPrefix tags gzip values so plain and compressed values can share a
// bucket after FF_STORE_COMPRESSION is toggled
const compressedPrefix = "gz:"

// CompressValue gzips s and returns it base64 encoded behind the "gz:" tag
func CompressValue(s string) (string, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := zw.Write([]byte(s)); err != nil {
		return "", fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("gzip close: %w", err)
	}
	return compressedPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// IsCompressed reports whether s was produced by CompressValue
func IsCompressed(s string) bool {
	return strings.HasPrefix(s, compressedPrefix)
}

// DecompressValue reverses CompressValue. Untagged values are returned as is.
func DecompressValue(s string) (string, error) {
	if !IsCompressed(s) {
		return s, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, compressedPrefix))
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("gzip reader: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("gzip read: %w", err)
	}
	return string(out), nil
}
