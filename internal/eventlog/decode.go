package eventlog

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncodings is the candidate order used when none is configured. It
// ends in Latin-1, which maps every byte, so decoding cannot fail with it.
var DefaultEncodings = []string{"utf-8", "latin-1", "iso-8859-1", "cp1252", "cp1251"}

// aliases covers the short names people put in config files that the IANA
// index does not know.
var aliases = map[string]encoding.Encoding{
	"utf-8":      unicode.UTF8,
	"utf8":       unicode.UTF8,
	"latin-1":    charmap.ISO8859_1,
	"latin1":     charmap.ISO8859_1,
	"iso-8859-1": charmap.ISO8859_1,
	"cp1252":     charmap.Windows1252,
	"cp1251":     charmap.Windows1251,
}

type candidate struct {
	name string
	enc  encoding.Encoding
}

// Decoder turns raw log bytes into clean text lines.
type Decoder struct {
	candidates []candidate
}

// Decoded is the text of one log and the encoding that produced it.
type Decoded struct {
	Encoding string
	Lines    []string
}

// NewDecoder resolves the candidate encodings in order. An empty list means
// DefaultEncodings.
func NewDecoder(names []string) (*Decoder, error) {
	if len(names) == 0 {
		names = DefaultEncodings
	}
	d := &Decoder{candidates: make([]candidate, 0, len(names))}
	for _, name := range names {
		enc, err := lookupEncoding(name)
		if err != nil {
			return nil, err
		}
		d.candidates = append(d.candidates, candidate{name: name, enc: enc})
	}
	return d, nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	if enc, ok := aliases[strings.ToLower(name)]; ok {
		return enc, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is not supported", name)
	}
	return enc, nil
}

// Encodings lists the candidate names in the order they are tried.
func (d *Decoder) Encodings() []string {
	names := make([]string, len(d.candidates))
	for i, c := range d.candidates {
		names[i] = c.name
	}
	return names
}

// Decode normalizes line terminators, decodes with the first candidate that
// accepts the bytes and strips control characters. A final line terminator
// does not start another line. The file name only shows up
// in the error.
func (d *Decoder) Decode(name string, raw []byte) (*Decoded, error) {
	normalized := normalizeNewlines(raw)

	for _, c := range d.candidates {
		text, ok := decodeWith(c.enc, normalized)
		if !ok {
			continue
		}
		return &Decoded{
			Encoding: c.name,
			Lines:    strings.Split(strings.TrimSuffix(stripControl(text), "\n"), "\n"),
		}, nil
	}
	return nil, newError(KindDecode, "decode", "%s: tried %s: %w",
		name, strings.Join(d.Encodings(), ", "), ErrDecode)
}

func normalizeNewlines(raw []byte) []byte {
	out := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(out, []byte("\r"), []byte("\n"))
}

// decodeWith is strict: UTF-8 must validate, single-byte charsets must map
// every byte.
func decodeWith(enc encoding.Encoding, b []byte) (string, bool) {
	if enc == unicode.UTF8 {
		if !utf8.Valid(b) {
			return "", false
		}
		return string(b), true
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// stripControl drops C0 controls other than the line separator, DEL, the C1
// range and a leading byte order mark.
func stripControl(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r <= 0x1F, r >= 0x7F && r <= 0x9F:
			return -1
		}
		return r
	}, s)
}
