package walk

import "time"

// Span is a half-open [Start, End) range of absolute offsets into the walked buffer.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns End - Start.
func (s Span) Len() int {
	return s.End - s.Start
}

// Record is one decoded unit of a ZIP container.
//
// Payload and all []byte fields are views into the buffer that was walked, not copies. They remain valid only as
// long as that buffer is alive and unmodified.
type Record struct {
	Kind  Kind `json:"kind" yaml:"kind"`
	Start int  `json:"start" yaml:"start"`
	End   int  `json:"end" yaml:"end"`

	// Fields is the kind-specific decoded struct, one of *LocalFileHeader, *CentralDirectoryHeader,
	// *EndOfCentralDirectory, *Zip64EndOfCentralDirectory, *Zip64EndOfCentralDirectoryLocator, *DataDescriptor, or
	// *Unknown.
	Fields Fields `json:"fields" yaml:"fields"`

	// Payload is the variable-length trailing region of the record: file data for local file headers, comment for
	// central directory headers and EOCD, extensible data for ZIP64 EOCD, and the whole region for unknown records.
	// Records without a trailing region have an empty Payload at End.
	Payload Span `json:"payload" yaml:"payload"`

	buf []byte
}

// Len returns End - Start.
func (r Record) Len() int {
	return r.End - r.Start
}

// Bytes returns the raw bytes of the record as a view into the walked buffer.
func (r Record) Bytes() []byte {
	if r.buf == nil {
		return nil
	}

	return r.buf[r.Start:r.End:r.End]
}

// PayloadBytes returns the payload as a view into the walked buffer.
func (r Record) PayloadBytes() []byte {
	if r.buf == nil {
		return nil
	}

	return r.buf[r.Payload.Start:r.Payload.End:r.Payload.End]
}

// Fields is implemented by every kind-specific record struct.
type Fields interface {
	// Kind returns the Kind that the fields belong to.
	Kind() Kind
}

// LocalFileHeader models the fixed and variable parts of a local file header.
//
// See https://en.wikipedia.org/wiki/ZIP_(file_format)#Local_file_header.
type LocalFileHeader struct {
	ReaderVersion    uint16 `json:"readerVersion" yaml:"readerVersion"`
	Flags            uint16 `json:"flags" yaml:"flags"`
	Method           uint16 `json:"method" yaml:"method"`
	ModifiedTime     uint16 `json:"modifiedTime" yaml:"modifiedTime"`
	ModifiedDate     uint16 `json:"modifiedDate" yaml:"modifiedDate"`
	CRC32            uint32 `json:"crc32" yaml:"crc32"`
	CompressedSize   uint32 `json:"compressedSize" yaml:"compressedSize"`
	UncompressedSize uint32 `json:"uncompressedSize" yaml:"uncompressedSize"`
	FileNameLength   uint16 `json:"fileNameLength" yaml:"fileNameLength"`
	ExtraFieldLength uint16 `json:"extraFieldLength" yaml:"extraFieldLength"`
	Name             []byte `json:"name" yaml:"name"`
	Extra            []byte `json:"extra" yaml:"extra"`

	// Zip64Sentinel is true if both CompressedSize and UncompressedSize are 0xFFFFFFFF.
	Zip64Sentinel bool `json:"zip64Sentinel" yaml:"zip64Sentinel"`
	// HasTrailingDescriptor is true if a data descriptor record is expected to follow the file data, which is the
	// case if bit 3 of Flags is set or Zip64Sentinel is true.
	HasTrailingDescriptor bool `json:"hasTrailingDescriptor" yaml:"hasTrailingDescriptor"`
	// SizeUndetermined is true if the size fields could not be used as the length of the file data, which was
	// instead found by scanning forward for the next signature.
	SizeUndetermined bool `json:"sizeUndetermined" yaml:"sizeUndetermined"`
}

func (*LocalFileHeader) Kind() Kind { return KindLocalFileHeader }

// Modified returns the MS-DOS modified date and time as a time.Time in UTC.
func (h *LocalFileHeader) Modified() time.Time {
	return msDosTimeToTime(h.ModifiedDate, h.ModifiedTime)
}

// CentralDirectoryHeader models a central directory file header.
//
// See https://en.wikipedia.org/wiki/ZIP_(file_format)#Central_directory_file_header_(CDFH).
type CentralDirectoryHeader struct {
	CreatorVersion    uint16 `json:"creatorVersion" yaml:"creatorVersion"`
	ReaderVersion     uint16 `json:"readerVersion" yaml:"readerVersion"`
	Flags             uint16 `json:"flags" yaml:"flags"`
	Method            uint16 `json:"method" yaml:"method"`
	ModifiedTime      uint16 `json:"modifiedTime" yaml:"modifiedTime"`
	ModifiedDate      uint16 `json:"modifiedDate" yaml:"modifiedDate"`
	CRC32             uint32 `json:"crc32" yaml:"crc32"`
	CompressedSize    uint32 `json:"compressedSize" yaml:"compressedSize"`
	UncompressedSize  uint32 `json:"uncompressedSize" yaml:"uncompressedSize"`
	FileNameLength    uint16 `json:"fileNameLength" yaml:"fileNameLength"`
	ExtraFieldLength  uint16 `json:"extraFieldLength" yaml:"extraFieldLength"`
	FileCommentLength uint16 `json:"fileCommentLength" yaml:"fileCommentLength"`
	// DiskNumber is the disk number where file starts.
	//
	// Since floppy disks aren't a thing anymore, this field is most likely unused.
	DiskNumber    uint16 `json:"diskNumber" yaml:"diskNumber"`
	InternalAttrs uint16 `json:"internalAttrs" yaml:"internalAttrs"`
	ExternalAttrs uint32 `json:"externalAttrs" yaml:"externalAttrs"`
	// Offset is the relative offset of local file header.
	Offset  uint32 `json:"offset" yaml:"offset"`
	Name    []byte `json:"name" yaml:"name"`
	Extra   []byte `json:"extra" yaml:"extra"`
	Comment []byte `json:"comment" yaml:"comment"`
}

func (*CentralDirectoryHeader) Kind() Kind { return KindCentralDirectoryHeader }

// Modified returns the MS-DOS modified date and time as a time.Time in UTC.
func (h *CentralDirectoryHeader) Modified() time.Time {
	return msDosTimeToTime(h.ModifiedDate, h.ModifiedTime)
}

// EndOfCentralDirectory models the end of central directory record.
//
// See https://en.wikipedia.org/wiki/ZIP_(file_format)#End_of_central_directory_record_(EOCD).
type EndOfCentralDirectory struct {
	// DiskNumber is number of this disk (or 0xffff for ZIP64).
	DiskNumber uint16 `json:"diskNumber" yaml:"diskNumber"`
	// CDDiskOffset is disk where central directory starts (or 0xffff for ZIP64).
	CDDiskOffset uint16 `json:"cdDiskOffset" yaml:"cdDiskOffset"`
	// CDCountOnDisk is the number of central directory records on this disk (or 0xffff for ZIP64).
	CDCountOnDisk uint16 `json:"cdCountOnDisk" yaml:"cdCountOnDisk"`
	// CDCount is the total number of central directory records (or 0xffff for ZIP64).
	CDCount uint16 `json:"cdCount" yaml:"cdCount"`
	// CDSize is size of central directory (bytes) (or 0xffffffff for ZIP64).
	CDSize uint32 `json:"cdSize" yaml:"cdSize"`
	// CDOffset is offset of start of central directory, relative to start of archive (or 0xffffffff for ZIP64).
	CDOffset      uint32 `json:"cdOffset" yaml:"cdOffset"`
	CommentLength uint16 `json:"commentLength" yaml:"commentLength"`
	Comment       []byte `json:"comment" yaml:"comment"`
}

func (*EndOfCentralDirectory) Kind() Kind { return KindEndOfCentralDirectory }

// Zip64EndOfCentralDirectory models the ZIP64 end of central directory record.
//
// See https://en.wikipedia.org/wiki/ZIP_(file_format)#ZIP64.
type Zip64EndOfCentralDirectory struct {
	// RecordSize is the size of the record not counting the leading 12 bytes (signature and RecordSize itself).
	RecordSize     uint64 `json:"recordSize" yaml:"recordSize"`
	CreatorVersion uint16 `json:"creatorVersion" yaml:"creatorVersion"`
	ReaderVersion  uint16 `json:"readerVersion" yaml:"readerVersion"`
	DiskNumber     uint32 `json:"diskNumber" yaml:"diskNumber"`
	CDDiskOffset   uint32 `json:"cdDiskOffset" yaml:"cdDiskOffset"`
	CDCountOnDisk  uint64 `json:"cdCountOnDisk" yaml:"cdCountOnDisk"`
	CDCount        uint64 `json:"cdCount" yaml:"cdCount"`
	CDSize         uint64 `json:"cdSize" yaml:"cdSize"`
	CDOffset       uint64 `json:"cdOffset" yaml:"cdOffset"`
	// CommentLength is derived as RecordSize - 56 + 12, or 0 if RecordSize is smaller than the fixed layout.
	CommentLength int    `json:"commentLength" yaml:"commentLength"`
	Comment       []byte `json:"comment" yaml:"comment"`
}

func (*Zip64EndOfCentralDirectory) Kind() Kind { return KindZip64EndOfCentralDirectory }

// Zip64EndOfCentralDirectoryLocator models the ZIP64 end of central directory locator.
type Zip64EndOfCentralDirectoryLocator struct {
	// EOCDDisk is the disk where the ZIP64 end of central directory record starts.
	EOCDDisk uint32 `json:"eocdDisk" yaml:"eocdDisk"`
	// EOCDOffset is the offset of the ZIP64 end of central directory record.
	EOCDOffset uint64 `json:"eocdOffset" yaml:"eocdOffset"`
	TotalDisks uint32 `json:"totalDisks" yaml:"totalDisks"`
}

func (*Zip64EndOfCentralDirectoryLocator) Kind() Kind { return KindZip64EndOfCentralDirectoryLocator }

// DataDescriptor models the data descriptor that follows file data written with bit 3 of the flags set.
type DataDescriptor struct {
	CRC32            uint32 `json:"crc32" yaml:"crc32"`
	CompressedSize   uint64 `json:"compressedSize" yaml:"compressedSize"`
	UncompressedSize uint64 `json:"uncompressedSize" yaml:"uncompressedSize"`
	// Zip64 is true if the size fields are 8 bytes wide.
	Zip64 bool `json:"zip64" yaml:"zip64"`
}

func (*DataDescriptor) Kind() Kind { return KindDataDescriptor }

// Unknown is the fields of an unrecognised region.
type Unknown struct {
	// Lookahead is the (up to 4) bytes that failed to classify.
	Lookahead []byte `json:"lookahead" yaml:"lookahead"`
}

func (*Unknown) Kind() Kind { return KindUnknown }
