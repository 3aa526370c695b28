// Package sentence validates NMEA 0183 sentences and hands them downstream.
//
// Parse checks the framing of a single sentence: a leading '$' (or '!' for
// encapsulated sentences such as AIVDM), a "*HH" checksum suffix, and the
// XOR checksum over everything in between. It does not interpret fields.
//
// Two consumers are provided for the record dispatcher:
//
//   - Publisher validates and publishes each sentence to NATS on
//     <prefix>.<frame_id>.<talker><type>, lower-cased, with a Frame-Id
//     header.
//   - Logger validates and logs each sentence at debug level. It is used
//     when no NATS server is configured.
//
// Both reject malformed sentences with an Invalid-classified error so that
// the dispatcher drops the record and carries on with the next one.
package sentence
