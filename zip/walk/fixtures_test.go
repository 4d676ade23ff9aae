package walk

import (
	"encoding/binary"
)

// localFileHeaderBytes builds a local file header without file data.
func localFileHeaderBytes(flags uint16, compressedSize, uncompressedSize uint32, name string, extra []byte) []byte {
	b := binary.LittleEndian.AppendUint32(nil, SigLocalFileHeader)
	b = binary.LittleEndian.AppendUint16(b, 20) // reader version
	b = binary.LittleEndian.AppendUint16(b, flags)
	b = binary.LittleEndian.AppendUint16(b, 0) // method
	b = binary.LittleEndian.AppendUint16(b, 0x6000)
	b = binary.LittleEndian.AppendUint16(b, 0x5a21)
	b = binary.LittleEndian.AppendUint32(b, 0xdeadbeef)
	b = binary.LittleEndian.AppendUint32(b, compressedSize)
	b = binary.LittleEndian.AppendUint32(b, uncompressedSize)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(name)))
	b = binary.LittleEndian.AppendUint16(b, uint16(len(extra)))
	b = append(b, name...)
	return append(b, extra...)
}

func centralDirectoryHeaderBytes(name, extra, comment string, offset uint32) []byte {
	b := binary.LittleEndian.AppendUint32(nil, SigCentralDirectoryHeader)
	b = binary.LittleEndian.AppendUint16(b, 0x031e) // creator version
	b = binary.LittleEndian.AppendUint16(b, 20)     // reader version
	b = binary.LittleEndian.AppendUint16(b, 0)      // flags
	b = binary.LittleEndian.AppendUint16(b, 0)      // method
	b = binary.LittleEndian.AppendUint16(b, 0)      // time
	b = binary.LittleEndian.AppendUint16(b, 0)      // date
	b = binary.LittleEndian.AppendUint32(b, 0)      // crc32
	b = binary.LittleEndian.AppendUint32(b, 0)      // compressed size
	b = binary.LittleEndian.AppendUint32(b, 0)      // uncompressed size
	b = binary.LittleEndian.AppendUint16(b, uint16(len(name)))
	b = binary.LittleEndian.AppendUint16(b, uint16(len(extra)))
	b = binary.LittleEndian.AppendUint16(b, uint16(len(comment)))
	b = binary.LittleEndian.AppendUint16(b, 0) // disk number
	b = binary.LittleEndian.AppendUint16(b, 0) // internal attrs
	b = binary.LittleEndian.AppendUint32(b, 0) // external attrs
	b = binary.LittleEndian.AppendUint32(b, offset)
	b = append(b, name...)
	b = append(b, extra...)
	return append(b, comment...)
}

func eocdBytes(count uint16, cdSize, cdOffset uint32, comment string) []byte {
	b := binary.LittleEndian.AppendUint32(nil, SigEndOfCentralDirectory)
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint16(b, count)
	b = binary.LittleEndian.AppendUint16(b, count)
	b = binary.LittleEndian.AppendUint32(b, cdSize)
	b = binary.LittleEndian.AppendUint32(b, cdOffset)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(comment)))
	return append(b, comment...)
}

func zip64EOCDBytes(recordSize uint64, extensible []byte) []byte {
	b := binary.LittleEndian.AppendUint32(nil, SigZip64EndOfCentralDirectory)
	b = binary.LittleEndian.AppendUint64(b, recordSize)
	b = binary.LittleEndian.AppendUint16(b, 45)
	b = binary.LittleEndian.AppendUint16(b, 45)
	b = binary.LittleEndian.AppendUint32(b, 0)
	b = binary.LittleEndian.AppendUint32(b, 0)
	b = binary.LittleEndian.AppendUint64(b, 1)
	b = binary.LittleEndian.AppendUint64(b, 1)
	b = binary.LittleEndian.AppendUint64(b, 46)
	b = binary.LittleEndian.AppendUint64(b, 100)
	return append(b, extensible...)
}

func zip64LocatorBytes(eocdOffset uint64) []byte {
	b := binary.LittleEndian.AppendUint32(nil, SigZip64EndOfCentralDirectoryLocator)
	b = binary.LittleEndian.AppendUint32(b, 0)
	b = binary.LittleEndian.AppendUint64(b, eocdOffset)
	return binary.LittleEndian.AppendUint32(b, 1)
}

func dataDescriptorBytes(crc uint32, compressedSize, uncompressedSize uint64, zip64 bool) []byte {
	b := binary.LittleEndian.AppendUint32(nil, SigDataDescriptor)
	b = binary.LittleEndian.AppendUint32(b, crc)
	if zip64 {
		b = binary.LittleEndian.AppendUint64(b, compressedSize)
		return binary.LittleEndian.AppendUint64(b, uncompressedSize)
	}

	b = binary.LittleEndian.AppendUint32(b, uint32(compressedSize))
	return binary.LittleEndian.AppendUint32(b, uint32(uncompressedSize))
}

func concat(parts ...[]byte) []byte {
	b := make([]byte, 0)
	for _, p := range parts {
		b = append(b, p...)
	}

	return b
}

// kinds returns the kind of every record.
func kinds(records []Record) []Kind {
	ks := make([]Kind, 0, len(records))
	for _, rec := range records {
		ks = append(ks, rec.Kind)
	}

	return ks
}
