// internal/scpi/response.go
package scpi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotNumeric is returned by ParseNumeric for non-measurement lines.
var ErrNotNumeric = errors.New("scpi: not a numeric response")

// Kind tags a classified response.
type Kind int

const (
	KindUnclassified Kind = iota
	KindIdentification
	KindNumeric
)

func (k Kind) String() string {
	switch k {
	case KindIdentification:
		return "identification"
	case KindNumeric:
		return "numeric"
	}
	return "unclassified"
}

// Response is one classified line.
// Value is set for KindNumeric; Text holds the raw line for every kind.
// Err records why an unclassified line failed to parse.
type Response struct {
	Kind  Kind
	Text  string
	Value float64
	Err   error
}

// Session is the per-link receive state.
type Session struct {
	Framer *Framer

	// AwaitingIdentification is true until the first completed line
	// after startup, whatever that line contains.
	AwaitingIdentification bool
}

// NewSession returns a session waiting for its identification line.
func NewSession(maxLine int) *Session {
	return &Session{
		Framer:                 NewFramer(maxLine),
		AwaitingIdentification: true,
	}
}

// Classify interprets one completed line.
//
// The first line after startup is always an Identification, even when it
// is garbage. The startup identify stage relies on this.
func Classify(line string, s *Session) Response {
	if s.AwaitingIdentification {
		s.AwaitingIdentification = false
		return Response{Kind: KindIdentification, Text: line}
	}

	v, err := ParseNumeric(line)
	if err != nil {
		return Response{Kind: KindUnclassified, Text: line, Err: err}
	}
	return Response{Kind: KindNumeric, Text: line, Value: v}
}

// ParseNumeric parses a scientific-notation ASCII float such as
// "5.123456E-03".
func ParseNumeric(line string) (float64, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return 0, ErrNotNumeric
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, line)
	}
	return v, nil
}
