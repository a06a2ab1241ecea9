// Package codec implements the value model and the two wire codecs used on
// platform channels.
//
// # Value Model
//
// Value is a sealed union of the types both sides of a channel understand:
//
//	Null  Bool  Int32  Int64  Float64  String
//	ByteList  Int32List  Int64List  Float64List
//	List  Map (ordered key/value entries)
//
// # Standard Codec
//
// Standard is the compact binary format. Each value is a tag byte followed by
// its payload; numbers are little-endian; sizes use a variable prefix
// (one byte below 254, 254 + uint16, 255 + uint32). Float64 values and the
// bodies of Int32List, Int64List and Float64List are aligned to their element
// width, measured from the start of the whole buffer.
//
//	Tag  Type          Tag  Type
//	───────────────────────────────────
//	0    null          7    string
//	1    true          8    uint8 list
//	2    false         9    int32 list
//	3    int32         10   int64 list
//	4    int64         11   float64 list
//	6    float64       12   list
//	                   13   map
//
// Method calls are [method String][args]. Success envelopes are [0][value],
// error envelopes are [1][code][message][details], and an empty response
// means the method is not implemented.
//
// # JSON Codec
//
// JSON encodes calls as {"method": ..., "args": ...}, success as [value] and
// errors as [code, message, details]. Integer widths and typed lists collapse
// on the way back.
//
// Decoding is total for both codecs: malformed input reports ok=false and
// never panics.
package codec
