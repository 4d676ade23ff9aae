package walk

import (
	"bytes"
	"encoding/binary"
)

// Kind is the type of record produced by a walk.
type Kind int

const (
	// KindUnknown is a region that does not start with any recognised signature.
	KindUnknown Kind = iota
	// KindLocalFileHeader is a local file header followed by its file data.
	KindLocalFileHeader
	// KindCentralDirectoryHeader is a central directory file header.
	KindCentralDirectoryHeader
	// KindEndOfCentralDirectory is the end of central directory record.
	KindEndOfCentralDirectory
	// KindZip64EndOfCentralDirectory is the ZIP64 end of central directory record.
	KindZip64EndOfCentralDirectory
	// KindZip64EndOfCentralDirectoryLocator is the ZIP64 end of central directory locator.
	KindZip64EndOfCentralDirectoryLocator
	// KindDataDescriptor is the data descriptor that trails file data whose sizes were not known up front.
	KindDataDescriptor
)

// Kinds returns all kinds in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindUnknown,
		KindLocalFileHeader,
		KindCentralDirectoryHeader,
		KindEndOfCentralDirectory,
		KindZip64EndOfCentralDirectory,
		KindZip64EndOfCentralDirectoryLocator,
		KindDataDescriptor,
	}
}

func (k Kind) String() string {
	switch k {
	case KindLocalFileHeader:
		return "local file header"
	case KindCentralDirectoryHeader:
		return "central directory header"
	case KindEndOfCentralDirectory:
		return "end of central directory"
	case KindZip64EndOfCentralDirectory:
		return "zip64 end of central directory"
	case KindZip64EndOfCentralDirectoryLocator:
		return "zip64 end of central directory locator"
	case KindDataDescriptor:
		return "data descriptor"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so that kinds render as names in JSON and YAML.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Record signatures, read as little-endian uint32.
const (
	SigLocalFileHeader                   uint32 = 0x04034b50 // PK\x03\x04
	SigCentralDirectoryHeader            uint32 = 0x02014b50 // PK\x01\x02
	SigEndOfCentralDirectory             uint32 = 0x06054b50 // PK\x05\x06
	SigZip64EndOfCentralDirectory        uint32 = 0x06064b50 // PK\x06\x06
	SigZip64EndOfCentralDirectoryLocator uint32 = 0x07064b50 // PK\x06\x07
	SigDataDescriptor                    uint32 = 0x08074b50 // PK\x07\x08
)

// sigPrefix is the two-byte prefix shared by every signature, used for resynchronisation.
var sigPrefix = []byte{'P', 'K'}

// Classify maps the first 4 bytes of b to a Kind.
//
// Returns KindUnknown if b has fewer than 4 bytes or does not start with a recognised signature.
func Classify(b []byte) Kind {
	if len(b) < 4 {
		return KindUnknown
	}

	switch binary.LittleEndian.Uint32(b) {
	case SigLocalFileHeader:
		return KindLocalFileHeader
	case SigCentralDirectoryHeader:
		return KindCentralDirectoryHeader
	case SigEndOfCentralDirectory:
		return KindEndOfCentralDirectory
	case SigZip64EndOfCentralDirectory:
		return KindZip64EndOfCentralDirectory
	case SigZip64EndOfCentralDirectoryLocator:
		return KindZip64EndOfCentralDirectoryLocator
	case SigDataDescriptor:
		return KindDataDescriptor
	default:
		return KindUnknown
	}
}

// IsSignaturePrefix reports whether b starts with "PK", the prefix that resynchronisation stops at.
func IsSignaturePrefix(b []byte) bool {
	return bytes.HasPrefix(b, sigPrefix)
}
