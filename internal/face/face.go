// Package face maps raw triangle picks to stable logical faces and describes them.
package face

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Faultbox/talkcad/pkg/math"
)

// ID is a logical face number. Several triangles of one generation share an ID.
type ID int

// None is the explicit "no face" value.
const None ID = -1

// IsNone reports whether id is None (or any other negative value).
func (id ID) IsNone() bool {
	return id < 0
}

// String returns the decimal id, or "none".
func (id ID) String() string {
	if id.IsNone() {
		return "none"
	}
	return strconv.Itoa(int(id))
}

// Metadata describes a face for display.
type Metadata struct {
	Name   string    `yaml:"name" json:"name"`
	Normal math.Vec3 `yaml:"normal" json:"normal"`
}

var (
	// ErrOutOfRange matches every *OutOfRangeError.
	ErrOutOfRange = errors.New("triangle index out of range")

	// ErrUnknownFace matches every *UnknownFaceError.
	ErrUnknownFace = errors.New("unknown face")
)

// OutOfRangeError is returned when a pick does not name a triangle of the current mesh.
type OutOfRangeError struct {
	Index         int
	TriangleCount int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("triangle index %d out of range [0, %d)", e.Index, e.TriangleCount)
}

// Is makes errors.Is(err, ErrOutOfRange) true.
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// UnknownFaceError means the metadata table has no record for a resolved face.
// That is a resolver/table mismatch, not a user error.
type UnknownFaceError struct {
	ID ID
}

func (e *UnknownFaceError) Error() string {
	return fmt.Sprintf("no metadata for face %s", e.ID)
}

// Is makes errors.Is(err, ErrUnknownFace) true.
func (e *UnknownFaceError) Is(target error) bool {
	return target == ErrUnknownFace
}
