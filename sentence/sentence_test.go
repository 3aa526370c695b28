package sentence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takiaine/nmea-navsat-driver/errors"
)

const (
	gga = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	rmc = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	vdm = "!AIVDM,1,1,,B,177KQJ5000G?tO`K>RA1wUbN0TKH,0*5C"
	rmz = "$PGRMZ,246,f,3*1B"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		talker string
		typ    string
		fields int
	}{
		{"gga", gga, "GP", "GGA", 14},
		{"rmc", rmc, "GP", "RMC", 11},
		{"encapsulated", vdm, "AI", "VDM", 6},
		{"proprietary", rmz, "P", "GRMZ", 3},
		{"trailing cr", gga + "\r", "GP", "GGA", 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.talker, s.Talker)
			assert.Equal(t, tt.typ, s.Type)
			assert.Len(t, s.Fields, tt.fields)
			assert.Equal(t, strings.TrimSpace(tt.input), string(s.Raw))
		})
	}
}

func TestParse_Fields(t *testing.T) {
	s, err := Parse([]byte(rmc))
	require.NoError(t, err)
	assert.Equal(t, "GPRMC", s.ID())
	assert.Equal(t, "123519", s.Fields[0])
	assert.Equal(t, "A", s.Fields[1])
	assert.Equal(t, "W", s.Fields[len(s.Fields)-1])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cause error
	}{
		{"empty", "  ", errors.ErrEmptyRecord},
		{"no start", "GPGGA,1*00", errors.ErrInvalidData},
		{"no checksum", "$GPGGA,123519", errors.ErrInvalidData},
		{"short checksum", "$GPGGA,123519*4", errors.ErrInvalidData},
		{"non hex checksum", "$GPGGA,123519*ZZ", errors.ErrInvalidData},
		{"wrong checksum", strings.Replace(gga, "*47", "*48", 1), errors.ErrChecksumFailed},
		{"corrupted body", strings.Replace(gga, "4807", "4808", 1), errors.ErrChecksumFailed},
		{"short address", "$GP,1*" + hex(Checksum([]byte("GP,1"))), errors.ErrInvalidData},
		{"lower case address", "$gpgga,1*" + hex(Checksum([]byte("gpgga,1"))), errors.ErrInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.cause)
			assert.True(t, errors.IsInvalid(err), "parse errors must be record-level: %v", err)
		})
	}
}

func TestParse_DoesNotAlias(t *testing.T) {
	buf := []byte(gga)
	s, err := Parse(buf)
	require.NoError(t, err)

	buf[1] = 'X'
	assert.Equal(t, gga, string(s.Raw))
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, byte(0), Checksum(nil))
	assert.Equal(t, byte(0x6A), Checksum([]byte(rmc[1:strings.IndexByte(rmc, '*')])))
}

func hex(b byte) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[b>>4], digits[b&0x0f]})
}
