package sentence

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/takiaine/nmea-navsat-driver/errors"
)

// MaxLength is the longest sentence NMEA 0183 allows, including "$" and "*HH"
// but not the line terminator. Parse does not enforce it; receivers in the
// field routinely exceed it.
const MaxLength = 82

// Sentence is a checksum-verified NMEA sentence
type Sentence struct {
	Talker string   // "GP", "GN", "AI", or "P" for proprietary sentences
	Type   string   // "GGA", "RMC", "VDM", ...
	Fields []string // comma separated fields after the address
	Raw    []byte   // the sentence as received, terminator stripped
}

// ID returns talker and type concatenated, e.g. "GPGGA"
func (s Sentence) ID() string {
	return s.Talker + s.Type
}

// Parse validates record and splits it into address and fields
func Parse(record []byte) (Sentence, error) {
	raw := bytes.TrimSpace(record)
	if len(raw) == 0 {
		return Sentence{}, invalid(errors.ErrEmptyRecord, "empty sentence")
	}
	if raw[0] != '$' && raw[0] != '!' {
		return Sentence{}, invalid(errors.ErrInvalidData, "missing start delimiter")
	}

	star := bytes.LastIndexByte(raw, '*')
	if star < 0 {
		return Sentence{}, invalid(errors.ErrInvalidData, "missing checksum")
	}
	if len(raw)-star-1 != 2 {
		return Sentence{}, invalid(errors.ErrInvalidData, "malformed checksum")
	}

	want, err := strconv.ParseUint(string(raw[star+1:]), 16, 8)
	if err != nil {
		return Sentence{}, invalid(errors.ErrInvalidData, "malformed checksum")
	}

	body := raw[1:star]
	if got := Checksum(body); got != byte(want) {
		return Sentence{}, invalid(errors.ErrChecksumFailed,
			fmt.Sprintf("checksum %02X, sentence says %02X", got, want))
	}

	parts := strings.Split(string(body), ",")
	talker, typ, ok := splitAddress(parts[0])
	if !ok {
		return Sentence{}, invalid(errors.ErrInvalidData, fmt.Sprintf("bad address field %q", parts[0]))
	}

	return Sentence{
		Talker: talker,
		Type:   typ,
		Fields: parts[1:],
		Raw:    bytes.Clone(raw),
	}, nil
}

// Checksum XORs every byte of body, which excludes the start delimiter and "*HH"
func Checksum(body []byte) byte {
	var sum byte
	for _, b := range body {
		sum ^= b
	}
	return sum
}

func splitAddress(addr string) (talker, typ string, ok bool) {
	for i := 0; i < len(addr); i++ {
		c := addr[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return "", "", false
		}
	}
	if len(addr) >= 2 && addr[0] == 'P' {
		return "P", addr[1:], true
	}
	if len(addr) < 3 {
		return "", "", false
	}
	return addr[:2], addr[2:], true
}

func invalid(cause error, detail string) error {
	return errors.WrapInvalid(fmt.Errorf("%w: %s", cause, detail), "sentence", "Parse", "validate sentence")
}
