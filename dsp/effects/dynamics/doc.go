// Package dynamics provides reusable non-I/O dynamics processors.
//
// Included processors:
//   - Compressor: Soft-knee compressor with log2-domain gain computation,
//     usable per channel or stereo-linked.
package dynamics
