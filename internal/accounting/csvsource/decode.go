package csvsource

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// utf8Reader returns a reader that yields r decoded to UTF-8. A BOM wins,
// then plain UTF-8, then whatever chardet is confident about, and finally
// Windows-1252, which is what spreadsheet exports fall back to.
func utf8Reader(r io.Reader) (*bufio.Reader, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	buf, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return decoded(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return decoded(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), nil
	case validUTF8Prefix(buf):
		return br, nil
	}

	result, err := chardet.NewTextDetector().DetectBest(buf)
	if err == nil {
		switch result.Charset {
		case "UTF-8":
			return br, nil
		case "ISO-8859-15":
			return decoded(br, charmap.ISO8859_15.NewDecoder()), nil
		case "ISO-8859-9":
			return decoded(br, charmap.ISO8859_9.NewDecoder()), nil
		}
	}

	return decoded(br, charmap.Windows1252.NewDecoder()), nil
}

func decoded(r io.Reader, t transform.Transformer) *bufio.Reader {
	return bufio.NewReader(transform.NewReader(r, t))
}

// validUTF8Prefix is utf8.Valid tolerant of a rune cut off at the end of a
// full sniff window.
func validUTF8Prefix(buf []byte) bool {
	if len(buf) == sniffSize {
		for i := len(buf) - 1; i >= len(buf)-utf8.UTFMax; i-- {
			if utf8.RuneStart(buf[i]) {
				buf = buf[:i]
				break
			}
		}
	}

	return utf8.Valid(buf)
}

// sniffDelimiter picks ',' or ';' from whichever appears more often in the
// first line. Ties go to ','.
func sniffDelimiter(br *bufio.Reader) rune {
	buf, _ := br.Peek(sniffSize)
	if i := bytes.IndexByte(buf, '\n'); i >= 0 {
		buf = buf[:i]
	}

	if bytes.Count(buf, []byte{';'}) > bytes.Count(buf, []byte{','}) {
		return ';'
	}

	return ','
}
