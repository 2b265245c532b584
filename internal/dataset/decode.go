package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Compression names a stream codec wrapped around the raw file.
type Compression string

const (
	CompressionAuto Compression = ""
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// sniffCompression inspects the leading bytes of a stream.
func sniffCompression(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, magicGzip):
		return CompressionGzip
	case bytes.HasPrefix(head, magicZstd):
		return CompressionZstd
	case bytes.HasPrefix(head, magicLZ4):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// decompress reads the whole input, unwrapping the codec when one applies.
func decompress(r io.Reader, c Compression) ([]byte, Compression, error) {
	br := bufio.NewReader(r)
	if c == CompressionAuto {
		head, _ := br.Peek(4)
		c = sniffCompression(head)
	}
	var src io.Reader = br
	switch c {
	case CompressionNone:
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		src = zr
	case CompressionZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		src = zr
	case CompressionLZ4:
		src = lz4.NewReader(br)
	default:
		return nil, c, fmt.Errorf("%w: compression %q", ErrUnsupportedFormat, c)
	}
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, c, fmt.Errorf("read %s stream: %w", c, err)
	}
	return b, c, nil
}

// textEncoding resolves an encoding name. UTF-8 input has any byte order mark removed.
func textEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	default:
		return nil, fmt.Errorf("%w: encoding %q", ErrUnsupportedFormat, name)
	}
}

func decodeText(b []byte, name string) ([]byte, error) {
	enc, err := textEncoding(name)
	if err != nil {
		return nil, err
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return out, nil
}
