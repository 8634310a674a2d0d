// Package types defines the type-definition model used by the type registry:
// namespaced type names mapped to file-local numeric identifiers.
package types

import (
	"fmt"
	"regexp"
)

// Table names of the reference tables a registry can be built over.
const (
	TableAccountType     = "account_type"
	TableTransactionType = "transaction_type"
)

// PassthroughName is returned when a file-local identifier has no registered
// definition. Readers carry it through rather than failing, so files written
// by newer or vendor-extended systems stay readable.
const PassthroughName = "UNKNOWN"

// Class partitions type names by namespace.
type Class int

const (
	// ClassStandard covers names defined by the format itself (UPPERCASE_WITH_UNDERSCORES).
	ClassStandard Class = iota
	// ClassVendor covers vendor-specific names (vendor.<namespace>.<TYPE>).
	ClassVendor
	// ClassExtension covers community-proposed names (ext.<namespace>.<TYPE>).
	ClassExtension
)

func (c Class) String() string {
	switch c {
	case ClassStandard:
		return "standard"
	case ClassVendor:
		return "vendor"
	case ClassExtension:
		return "extension"
	default:
		return "unknown"
	}
}

// Definition is one row of a reference table. The ID is file-local and has no
// meaning outside the file it was read from; Name is the portable identity.
type Definition struct {
	ID          int64
	Name        string
	IsStandard  bool
	Description string
}

// Category carries the behavior metadata of a transaction type. New
// transaction types need only a registry entry plus these flags; no code
// change is required to support them.
type Category struct {
	AffectsAR        bool
	AffectsAP        bool
	AffectsInventory bool
}

var (
	standardNamePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	vendorNamePattern   = regexp.MustCompile(`^vendor\.[a-z][a-z0-9_]*\.[A-Z][A-Z0-9_]*$`)
	extNamePattern      = regexp.MustCompile(`^ext\.[a-z][a-z0-9_]*\.[A-Z][A-Z0-9_]*$`)

	// Namespace patterns for extension fields reuse the same shapes minus the
	// trailing type segment. The bare form covers the format's own namespace.
	standardNamespacePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	scopedNamespacePattern   = regexp.MustCompile(`^(vendor|ext)\.[a-z][a-z0-9_]*$`)
)

// Classify returns the namespace class of a type name, or
// InvalidNamespaceError when the name matches none of the allowed shapes.
func Classify(name string) (Class, error) {
	switch {
	case standardNamePattern.MatchString(name):
		return ClassStandard, nil
	case vendorNamePattern.MatchString(name):
		return ClassVendor, nil
	case extNamePattern.MatchString(name):
		return ClassExtension, nil
	default:
		return 0, InvalidNamespaceError{Name: name}
	}
}

// ValidateName checks a type name against the three allowed shapes.
func ValidateName(name string) error {
	_, err := Classify(name)
	return err
}

// ValidateNamespace checks an extension-field namespace against the allowed
// shapes: a bare lowercase namespace, or one scoped under vendor. / ext.
func ValidateNamespace(ns string) error {
	if standardNamespacePattern.MatchString(ns) || scopedNamespacePattern.MatchString(ns) {
		return nil
	}
	return InvalidNamespaceError{Name: ns}
}

// DuplicateNameError indicates a registration attempt for a name that is
// already bound to a different file-local identifier.
type DuplicateNameError struct {
	Name       string
	ExistingID int64
}

func (e DuplicateNameError) Error() string {
	return fmt.Sprintf("type name %q already registered with id %d", e.Name, e.ExistingID)
}

// UnknownTypeError indicates a strict lookup for a name or identifier that is
// not registered.
type UnknownTypeError struct {
	Name string
	ID   int64
}

func (e UnknownTypeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unknown type name %q", e.Name)
	}
	return fmt.Sprintf("unknown type id %d", e.ID)
}

// InvalidNamespaceError indicates a name that matches none of the allowed
// namespace shapes.
type InvalidNamespaceError struct {
	Name string
}

func (e InvalidNamespaceError) Error() string {
	return fmt.Sprintf("invalid type namespace: %q (want UPPERCASE_WITH_UNDERSCORES, vendor.<ns>.<TYPE> or ext.<ns>.<TYPE>)", e.Name)
}
