package protocol

import "strconv"

const (
	// NameLen is the fixed width of the zero-padded name field.
	NameLen = 255
	// LengthLen is the width of the little-endian length field.
	LengthLen = 4
	// ChecksumLen is the width of the little-endian CRC32 field.
	ChecksumLen = 4
	// HeaderLen is the size of a request or response header before any body.
	HeaderLen = 0x108

	FlagsOffset    = 0
	NameOffset     = 1
	LengthOffset   = NameOffset + NameLen
	ChecksumOffset = LengthOffset + LengthLen
)

// Flags is the leading request byte.
//
// | Send? | Payload? | Reserved x4 | Cover? | Compress? |
type Flags uint8

const (
	FlagNone     Flags = 0x00
	FlagCompress Flags = 0x01
	FlagCover    Flags = 0x02
	FlagRead     Flags = 0x40
	FlagWrite    Flags = 0x80
	FlagDelete   Flags = 0xC0

	// OptionMask selects the caller-controlled upload bits.
	OptionMask = FlagCover | FlagCompress
	opMask     = FlagDelete
)

// Op returns only the operation bits.
func (f Flags) Op() Flags {
	return f & opMask
}

// Has reports whether every bit of opt is set.
func (f Flags) Has(opt Flags) bool {
	return f&opt == opt
}

func (f Flags) String() string {
	var name string
	switch f.Op() {
	case FlagDelete:
		name = "delete"
	case FlagWrite:
		name = "write"
	case FlagRead:
		name = "read"
	default:
		name = "none"
	}
	if f&FlagCover != 0 {
		name += "|cover"
	}
	if f&FlagCompress != 0 {
		name += "|compress"
	}
	return name
}

// Status is the leading response byte. Zero is success.
type Status uint8

const (
	StatusSuccess         Status = 0
	StatusFileNotFound    Status = 1
	StatusStoreFailed     Status = 2
	StatusInvalidRequest  Status = 3
	StatusFileNameInvalid Status = 4
	StatusInternalError   Status = 127
)

func (s Status) OK() bool {
	return s == StatusSuccess
}

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFileNotFound:
		return "file_not_found"
	case StatusStoreFailed:
		return "store_failed"
	case StatusInvalidRequest:
		return "invalid_request"
	case StatusFileNameInvalid:
		return "file_name_invalid"
	case StatusInternalError:
		return "internal_error"
	default:
		return "status_" + strconv.Itoa(int(s))
	}
}
