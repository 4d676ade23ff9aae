// Package detect decides which walker applies to a buffer.
package detect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mholt/archives"
	"github.com/nguyengg/xwalk/format/png"
	"github.com/nguyengg/xwalk/format/quarantine"
	"github.com/nguyengg/xwalk/zip/walk"
)

// Format is the name of a supported format.
type Format string

const (
	Unknown Format = "unknown"
	Zip     Format = "zip"
	PNG     Format = "png"
	Gzip    Format = "gzip"
	JFIF    Format = "jfif"
	// Quarantine covers both kinds of Windows Defender quarantine files.
	Quarantine Format = "quarantine"
	// XZ is not walked, only unwrapped.
	XZ Format = "xz"
)

// ErrUnknownFormat is returned by Parse for unsupported names.
var ErrUnknownFormat = errors.New("unknown format")

// Parse converts the given name (case-insensitive) into a Format.
//
// "auto" and the empty string return Unknown, which means "detect from content".
func Parse(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case "", "auto":
		return Unknown, nil
	case Zip, PNG, Gzip, JFIF, Quarantine, XZ:
		return f, nil
	case "gz":
		return Gzip, nil
	case "jpg", "jpeg":
		return JFIF, nil
	default:
		return Unknown, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}

var jfifMagic = []byte{0xff, 0xd8, 0xff}

// Detect identifies the format of data from its content.
//
// PNG and JFIF are recognised by their magic bytes. Everything else goes through archives.Identify, then quarantine
// files are recognised by their decrypted file id. As a last resort, data containing any ZIP signature is assumed to
// be a damaged or prefixed ZIP container. Unknown is returned if nothing matches; this is not an error.
func Detect(ctx context.Context, data []byte) (Format, error) {
	switch {
	case len(data) == 0:
		return Unknown, nil
	case bytes.HasPrefix(data, png.Signature):
		return PNG, nil
	case bytes.HasPrefix(data, jfifMagic):
		return JFIF, nil
	}

	// the name is left empty so that matching is done by content only.
	f, _, err := archives.Identify(ctx, "", bytes.NewReader(data))
	switch {
	case err == nil:
		if format := fromExtension(f.Extension()); format != Unknown {
			return format, nil
		}
	case errors.Is(err, archives.NoMatch):
	default:
		return Unknown, fmt.Errorf("identify format error: %w", err)
	}

	if quarantine.Identify(data) != quarantine.KindUnknown {
		return Quarantine, nil
	}

	for _, kind := range walk.Signatures(data) {
		if kind != walk.KindUnknown {
			return Zip, nil
		}
	}

	return Unknown, nil
}

// fromExtension maps the extension of an archives.Format to a Format.
//
// Only the outermost layer matters: ".tar.gz" is walked as gzip.
func fromExtension(ext string) Format {
	switch {
	case strings.HasSuffix(ext, ".zip"):
		return Zip
	case strings.HasSuffix(ext, ".gz"):
		return Gzip
	case strings.HasSuffix(ext, ".xz"):
		return XZ
	default:
		return Unknown
	}
}
