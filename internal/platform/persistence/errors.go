package persistence

import (
	"fmt"
	"strings"
)

// NotAFileOfThisFormatError indicates a file whose application_id magic does
// not match the format marker. Fatal: the open is aborted.
type NotAFileOfThisFormatError struct {
	Path          string
	ApplicationID int64
}

func (e NotAFileOfThisFormatError) Error() string {
	return fmt.Sprintf("%s is not an OAIF file (application_id %#x)", e.Path, e.ApplicationID)
}

// Is matches any NotAFileOfThisFormatError regardless of path.
func (e NotAFileOfThisFormatError) Is(target error) bool {
	_, ok := target.(NotAFileOfThisFormatError)
	return ok
}

// MissingMetadataError indicates required metadata keys absent from the file.
// Fatal: the open is aborted.
type MissingMetadataError struct {
	Keys []string
}

func (e MissingMetadataError) Error() string {
	return "file is missing required metadata: " + strings.Join(e.Keys, ", ")
}

// Is matches any MissingMetadataError regardless of keys.
func (e MissingMetadataError) Is(target error) bool {
	_, ok := target.(MissingMetadataError)
	return ok
}

// UnsupportedVersionError indicates a file that declares a minimum-reader
// version above this engine's capability. The reader must refuse to operate,
// not degrade.
type UnsupportedVersionError struct {
	MinReader string
	Reader    string
}

func (e UnsupportedVersionError) Error() string {
	return fmt.Sprintf("file requires reader version %s or newer; this reader implements %s", e.MinReader, e.Reader)
}

// Is matches any UnsupportedVersionError regardless of versions.
func (e UnsupportedVersionError) Is(target error) bool {
	_, ok := target.(UnsupportedVersionError)
	return ok
}
