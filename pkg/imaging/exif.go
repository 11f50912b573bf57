package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
)

const dateTimeTag = "DateTime"

var ErrNoTimestamp = errors.New("no EXIF DateTime")

// StampDateTime replaces any EXIF block in a JPEG with one holding only
// IFD0 DateTime.
func StampDateTime(jpeg []byte, ts time.Time) ([]byte, error) {
	sl, err := parseJPEG(jpeg)
	if err != nil {
		return nil, err
	}

	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("exif mapping: %w", err)
	}
	ib := exif.NewIfdBuilder(im, exif.NewTagIndex(), exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	if err := ib.AddStandardWithName(dateTimeTag, FormatTimestamp(ts)); err != nil {
		return nil, fmt.Errorf("exif %s: %w", dateTimeTag, err)
	}

	if err := sl.SetExif(ib); err != nil {
		return nil, fmt.Errorf("set exif: %w", err)
	}

	out := bytes.NewBuffer(make([]byte, 0, len(jpeg)+256))
	if err := sl.Write(out); err != nil {
		return nil, fmt.Errorf("write jpeg: %w", err)
	}
	return out.Bytes(), nil
}

// ReadDateTime returns the IFD0 DateTime of a JPEG, in local time.
func ReadDateTime(jpeg []byte) (time.Time, error) {
	sl, err := parseJPEG(jpeg)
	if err != nil {
		return time.Time{}, err
	}

	rootIfd, _, err := sl.Exif()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrNoTimestamp, err)
	}

	results, err := rootIfd.FindTagWithName(dateTimeTag)
	if err != nil || len(results) == 0 {
		return time.Time{}, ErrNoTimestamp
	}

	value, err := results[0].Value()
	if err != nil {
		return time.Time{}, fmt.Errorf("exif %s: %w", dateTimeTag, err)
	}
	phrase, ok := value.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("exif %s: unexpected value %T", dateTimeTag, value)
	}

	return time.ParseInLocation(TimestampLayout, strings.TrimRight(phrase, "\x00 "), time.Local)
}

func parseJPEG(jpeg []byte) (*jpegstructure.SegmentList, error) {
	intfc, err := jpegstructure.NewJpegMediaParser().ParseBytes(jpeg)
	if err != nil {
		return nil, fmt.Errorf("parse jpeg: %w", err)
	}
	sl, ok := intfc.(*jpegstructure.SegmentList)
	if !ok {
		return nil, fmt.Errorf("parse jpeg: unexpected media context %T", intfc)
	}
	return sl, nil
}
