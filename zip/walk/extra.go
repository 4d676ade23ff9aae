package walk

import (
	"encoding/binary"
	"fmt"

	"github.com/nguyengg/xwalk/bounded"
)

// Known extra field header IDs.
const (
	ExtraIDZip64     uint16 = 0x0001
	ExtraIDNTFS      uint16 = 0x000a
	ExtraIDUnix      uint16 = 0x000d
	ExtraIDExtTime   uint16 = 0x5455
	ExtraIDInfoZipV2 uint16 = 0x7875
)

// ExtraField is one block of a local or central directory header's extra field.
type ExtraField struct {
	ID uint16 `json:"id" yaml:"id"`
	// Data is a view into the extra field; it excludes the 4-byte block header.
	Data []byte `json:"data" yaml:"data"`
}

// ParseExtraFields splits the given extra field into its blocks.
//
// Every block must fit entirely within extra, otherwise the blocks parsed so far are returned along with an error
// matching bounded.ErrInsufficientData.
func ParseExtraFields(extra []byte) (fields []ExtraField, err error) {
	r := bounded.New(extra)

	for offset := 0; offset < r.End(); {
		var id, size uint16
		if id, err = r.Uint16(offset, binary.LittleEndian); err != nil {
			return fields, fmt.Errorf("parse extra field block header: %w", err)
		}
		if size, err = r.Uint16(offset+2, binary.LittleEndian); err != nil {
			return fields, fmt.Errorf("parse extra field block header: %w", err)
		}

		data, err := r.Slice(fmt.Sprintf("extra field block 0x%04x", id), offset+4, int(size))
		if err != nil {
			return fields, err
		}

		fields = append(fields, ExtraField{ID: id, Data: data})
		offset += 4 + int(size)
	}

	return fields, nil
}

// Zip64ExtendedInfo is the decoded ZIP64 extended information extra field (ID 0x0001).
//
// A field is only present in the block if its 32-bit counterpart in the header is maxed out, so each is nil when
// absent.
type Zip64ExtendedInfo struct {
	UncompressedSize  *uint64 `json:"uncompressedSize,omitempty" yaml:"uncompressedSize,omitempty"`
	CompressedSize    *uint64 `json:"compressedSize,omitempty" yaml:"compressedSize,omitempty"`
	LocalHeaderOffset *uint64 `json:"localHeaderOffset,omitempty" yaml:"localHeaderOffset,omitempty"`
}

// ParseZip64ExtendedInfo decodes a ZIP64 extended information block.
//
// The needXxx flags say which fields the header had set to the sentinel value; they are decoded in the order
// mandated by the format. The result is informational only; walks never use it to size file data.
func ParseZip64ExtendedInfo(data []byte, needUncompressed, needCompressed, needOffset bool) (info Zip64ExtendedInfo, err error) {
	r := bounded.New(data)
	offset := 0

	next := func(name string) (*uint64, error) {
		if err := r.Check(name, offset, 8); err != nil {
			return nil, err
		}

		v, _ := r.Uint64(offset, binary.LittleEndian)
		offset += 8
		return &v, nil
	}

	if needUncompressed {
		if info.UncompressedSize, err = next("zip64 uncompressed size"); err != nil {
			return
		}
	}
	if needCompressed {
		if info.CompressedSize, err = next("zip64 compressed size"); err != nil {
			return
		}
	}
	if needOffset {
		if info.LocalHeaderOffset, err = next("zip64 local header offset"); err != nil {
			return
		}
	}

	return info, nil
}
