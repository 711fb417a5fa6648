// Package codec encodes and decodes archive file names.
//
// An archive file name joins up to three fields with a single reserved
// separator:
//
//	<timestamp>$<file name>[$<label>]
//
// Every literal separator inside a field is doubled before joining, so fields
// may contain the separator. On decode, a run of n separators yields n/2
// literal separators and, when n is odd, one field boundary after them. The
// timestamp is numeric, so the first separator always closes it and a file
// name may start with the separator. A label may not: its leading separators
// would be read as the tail of the file name.
package codec

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSeparator is the separator used for archive file names on disk.
const DefaultSeparator = '$'

// ErrMalformedName indicates an archive file name that does not decode into
// a timestamp, a file name and an optional label.
var ErrMalformedName = errors.New("malformed archive file name")

// Fields holds the decoded parts of an archive file name.
// Label is empty when the name carries no label.
type Fields struct {
	Timestamp string
	FileName  string
	Label     string
}

// HasLabel reports whether a label field was present.
func (f Fields) HasLabel() bool {
	return f.Label != ""
}

// Codec escapes, joins and splits archive file name fields around a separator.
type Codec struct {
	sep    rune
	single string
	pair   string
}

// Default is the codec for the on-disk format.
var Default = New(DefaultSeparator)

// New returns a Codec using sep as the field separator.
func New(sep rune) Codec {
	s := string(sep)
	return Codec{sep: sep, single: s, pair: s + s}
}

// Separator returns the field separator.
func (c Codec) Separator() rune {
	return c.sep
}

// Escape doubles every separator in s.
func (c Codec) Escape(s string) string {
	return strings.ReplaceAll(s, c.single, c.pair)
}

// Unescape collapses every pair of separators in s into one.
func (c Codec) Unescape(s string) string {
	return strings.ReplaceAll(s, c.pair, c.single)
}

// Encode builds an archive file name. The label field is omitted when label is empty.
func (c Codec) Encode(timestamp, fileName, label string) string {
	var b strings.Builder
	b.WriteString(c.Escape(timestamp))
	b.WriteString(c.single)
	b.WriteString(c.Escape(fileName))
	if label != "" {
		b.WriteString(c.single)
		b.WriteString(c.Escape(label))
	}
	return b.String()
}

// Decode splits an archive file name back into its fields.
// The timestamp never contains the separator, so the first separator always
// ends it; later boundaries follow the odd-run rule.
func (c Codec) Decode(name string) (Fields, error) {
	i := strings.IndexRune(name, c.sep)
	if i < 0 {
		return Fields{}, fmt.Errorf("%w: %q has no separator", ErrMalformedName, name)
	}
	fields := []string{name[:i]}
	rest := name[i+utf8.RuneLen(c.sep):]

	var cur strings.Builder
	run := 0

	flush := func() {
		for j := 0; j < run/2; j++ {
			cur.WriteRune(c.sep)
		}
		if run%2 == 1 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
		run = 0
	}

	for _, r := range rest {
		if r == c.sep {
			run++
			continue
		}
		if run > 0 {
			flush()
		}
		cur.WriteRune(r)
	}
	flush()
	fields = append(fields, cur.String())

	if len(fields) != 2 && len(fields) != 3 {
		return Fields{}, fmt.Errorf("%w: %q has %d fields", ErrMalformedName, name, len(fields))
	}
	f := Fields{Timestamp: fields[0], FileName: fields[1]}
	switch {
	case f.Timestamp == "":
		return Fields{}, fmt.Errorf("%w: %q has an empty timestamp", ErrMalformedName, name)
	case f.FileName == "":
		return Fields{}, fmt.Errorf("%w: %q has an empty file name", ErrMalformedName, name)
	}
	if len(fields) == 3 {
		if fields[2] == "" {
			return Fields{}, fmt.Errorf("%w: %q has an empty label field", ErrMalformedName, name)
		}
		f.Label = fields[2]
	}
	return f, nil
}

// Escape doubles every DefaultSeparator in s.
func Escape(s string) string { return Default.Escape(s) }

// Unescape collapses every pair of DefaultSeparator in s.
func Unescape(s string) string { return Default.Unescape(s) }

// Encode builds an archive file name with DefaultSeparator.
func Encode(timestamp, fileName, label string) string {
	return Default.Encode(timestamp, fileName, label)
}

// Decode splits an archive file name built with DefaultSeparator.
func Decode(name string) (Fields, error) { return Default.Decode(name) }
