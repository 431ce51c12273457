// Package srm parses HDCP 1.x System Renewability Messages.
//
// An SRM carries the revocation list published by the licensing authority:
//
//	byte 0      SRM ID (high nibble, 0x8) and reserved bits
//	byte 1      reserved
//	bytes 2-3   SRM version, big-endian
//	byte 4      SRM generation number
//	bytes 5-7   VRL length, big-endian, counting itself, the vectors and
//	            the signature
//	...         revocation vectors: a device count (7 bits) followed by
//	            that many KSVs, most significant byte first
//	40 bytes    DSA signature over everything before it
//
// Only the first generation is parsed. The signature is returned but not
// verified; callers that need authenticity must check it against the
// licensing authority's public key.
package srm
