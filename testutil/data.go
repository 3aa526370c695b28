package testutil

// Checksum-valid NMEA 0183 sentences, without line terminators.
const (
	GGA = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	RMC = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	VDM = "!AIVDM,1,1,,B,177KQJ5000G?tO`K>RA1wUbN0TKH,0*5C"
	RMZ = "$PGRMZ,246,f,3*1B"
)

// BadChecksum is GGA with a corrupted checksum
const BadChecksum = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*48"

// Stream joins sentences with CRLF terminators, the way receivers send them
func Stream(sentences ...string) string {
	var out string
	for _, s := range sentences {
		out += s + "\r\n"
	}
	return out
}
