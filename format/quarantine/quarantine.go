// Package quarantine walks the files that Windows Defender leaves in its quarantine folder.
//
// Files under the Entries folder describe quarantined threats while files under the ResourceData folder hold the
// quarantined file itself. Both are RC4-encrypted with a fixed key. The walkers decrypt into new buffers so the input
// is never modified, and every offset they report is an offset into the input.
package quarantine

import (
	"bytes"
	"crypto/rc4"

	"github.com/nguyengg/xwalk/bounded"
)

// key is the RC4 key shared by every Windows Defender installation.
var key = [256]byte{
	0x1e, 0x87, 0x78, 0x1b, 0x8d, 0xba, 0xa8, 0x44, 0xce, 0x69, 0x70, 0x2c, 0x0c, 0x78, 0xb7, 0x86,
	0xa3, 0xf6, 0x23, 0xb7, 0x38, 0xf5, 0xed, 0xf9, 0xaf, 0x83, 0x53, 0x0f, 0xb3, 0xfc, 0x54, 0xfa,
	0xa2, 0x1e, 0xb9, 0xcf, 0x13, 0x31, 0xfd, 0x0f, 0x0d, 0xa9, 0x54, 0xf6, 0x87, 0xcb, 0x9e, 0x18,
	0x27, 0x96, 0x97, 0x90, 0x0e, 0x53, 0xfb, 0x31, 0x7c, 0x9c, 0xbc, 0xe4, 0x8e, 0x23, 0xd0, 0x53,
	0x71, 0xec, 0xc1, 0x59, 0x51, 0xb8, 0xf3, 0x64, 0x9d, 0x7c, 0xa3, 0x3e, 0xd6, 0x8d, 0xc9, 0x04,
	0x7e, 0x82, 0xc9, 0xba, 0xad, 0x97, 0x99, 0xd0, 0xd4, 0x58, 0xcb, 0x84, 0x7c, 0xa9, 0xff, 0xbe,
	0x3c, 0x8a, 0x77, 0x52, 0x33, 0x55, 0x7d, 0xde, 0x13, 0xa8, 0xb1, 0x40, 0x87, 0xcc, 0x1b, 0xc8,
	0xf1, 0x0f, 0x6e, 0xcd, 0xd0, 0x83, 0xa9, 0x59, 0xcf, 0xf8, 0x4a, 0x9d, 0x1d, 0x50, 0x75, 0x5e,
	0x3e, 0x19, 0x18, 0x18, 0xaf, 0x23, 0xe2, 0x29, 0x35, 0x58, 0x76, 0x6d, 0x2c, 0x07, 0xe2, 0x57,
	0x12, 0xb2, 0xca, 0x0b, 0x53, 0x5e, 0xd8, 0xf6, 0xc5, 0x6c, 0xe7, 0x3d, 0x24, 0xbd, 0xd0, 0x29,
	0x17, 0x71, 0x86, 0x1a, 0x54, 0xb4, 0xc2, 0x85, 0xa9, 0xa3, 0xdb, 0x7a, 0xca, 0x6d, 0x22, 0x4a,
	0xea, 0xcd, 0x62, 0x1d, 0xb9, 0xf2, 0xa2, 0x2e, 0xd1, 0xe9, 0xe1, 0x1d, 0x75, 0xbe, 0xd7, 0xdc,
	0x0e, 0xcb, 0x0a, 0x8e, 0x68, 0xa2, 0xff, 0x12, 0x63, 0x40, 0x8d, 0xc8, 0x08, 0xdf, 0xfd, 0x16,
	0x4b, 0x11, 0x67, 0x74, 0xcd, 0x0b, 0x9b, 0x8d, 0x05, 0x41, 0x1e, 0xd6, 0x26, 0x2e, 0x42, 0x9b,
	0xa4, 0x95, 0x67, 0x6b, 0x83, 0x98, 0xdb, 0x2f, 0x35, 0xd3, 0xc1, 0xb9, 0xce, 0xd5, 0x26, 0x36,
	0xf2, 0x76, 0x5e, 0x1a, 0x95, 0xcb, 0x7c, 0xa4, 0xc3, 0xdd, 0xab, 0xdd, 0xbf, 0xf3, 0x82, 0x53,
}

var (
	// EntriesFileID is the first 16 decrypted bytes of an Entries file.
	EntriesFileID = []byte{0xdb, 0xe8, 0xc5, 0x01, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

	// ResourceDataFileID is the first 8 decrypted bytes of a ResourceData file.
	ResourceDataFileID = []byte{0x03, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00}
)

// Decrypt returns the RC4 decryption of data using a new stream, leaving data untouched.
//
// RC4 is symmetric so Decrypt also encrypts.
func Decrypt(data []byte) []byte {
	dst := make([]byte, len(data))
	newCipher().XORKeyStream(dst, data)
	return dst
}

func newCipher() *rc4.Cipher {
	c, err := rc4.NewCipher(key[:])
	if err != nil {
		// only possible with an empty or oversized key.
		panic(err)
	}

	return c
}

// Kind is the kind of quarantine file.
type Kind int

const (
	KindUnknown Kind = iota
	KindEntries
	KindResourceData
)

func (k Kind) String() string {
	switch k {
	case KindEntries:
		return "entries"
	case KindResourceData:
		return "resource data"
	default:
		return "unknown"
	}
}

// Identify decrypts the start of the window and compares it against EntriesFileID and ResourceDataFileID.
func Identify(data []byte, optFns ...func(*bounded.Options)) Kind {
	r := bounded.NewReader(data, optFns...)

	if b, err := r.Bytes(r.Start(), len(EntriesFileID)); err == nil && bytes.Equal(Decrypt(b), EntriesFileID) {
		return KindEntries
	}

	if b, err := r.Bytes(r.Start(), len(ResourceDataFileID)); err == nil && bytes.Equal(Decrypt(b), ResourceDataFileID) {
		return KindResourceData
	}

	return KindUnknown
}

// Part is a decrypted region of a quarantine file.
type Part struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`

	// Data is the decrypted content of [Start, End).
	Data []byte `json:"-" yaml:"-"`
}
