// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Literacy grades how much financial background a reader has. Rendering
// selects and phrases result sections by this level.
// Per prd001-research-lifecycle R5.2, prd006-presentation R2.
type Literacy string

const (
	LiteracyBeginner     Literacy = "beginner"
	LiteracyIntermediate Literacy = "intermediate"
	LiteracyAdvanced     Literacy = "advanced"
)

// ParseLiteracy validates a literacy string. The empty string defaults to
// beginner. Per prd006-presentation R2.2.
func ParseLiteracy(s string) (Literacy, error) {
	switch Literacy(s) {
	case "":
		return LiteracyBeginner, nil
	case LiteracyBeginner, LiteracyIntermediate, LiteracyAdvanced:
		return Literacy(s), nil
	}
	return "", NewError(KindValidation, "types.ParseLiteracy", fmt.Sprintf("unknown literacy level %q", s))
}

// Rank orders literacy levels: beginner 0, intermediate 1, advanced 2.
// Unknown levels rank -1.
func (l Literacy) Rank() int {
	switch l {
	case LiteracyBeginner:
		return 0
	case LiteracyIntermediate:
		return 1
	case LiteracyAdvanced:
		return 2
	}
	return -1
}

// Audience is the literacy band a result section serves. A zero Max means
// the band is open-ended upward. Per prd006-presentation R2.1.
type Audience struct {
	// Min is the lowest literacy level the section is written for.
	Min Literacy `json:"min" yaml:"min"`

	// Max is the highest literacy level the section targets. Empty means
	// no upper bound.
	Max Literacy `json:"max,omitempty" yaml:"max,omitempty"`
}

// Includes reports whether a reader at level l falls inside the band.
func (a Audience) Includes(l Literacy) bool {
	if l.Rank() < a.Min.Rank() {
		return false
	}
	if a.Max == "" {
		return true
	}
	return l.Rank() <= a.Max.Rank()
}

// EveryLevel is the audience band covering all readers.
func EveryLevel() Audience {
	return Audience{Min: LiteracyBeginner, Max: LiteracyAdvanced}
}

// ResearchProfile holds reader preferences that shape how results render.
// Per prd001-research-lifecycle R5.1-R5.3.
type ResearchProfile struct {
	// ID is the unique profile identifier ("prof-" plus a UUID).
	ID string `json:"id" yaml:"id"`

	// DisplayName is the human-facing profile name.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// Literacy is the reader's financial literacy level.
	Literacy Literacy `json:"literacy" yaml:"literacy"`

	// Preferences carries free-form rendering preferences.
	Preferences map[string]string `json:"preferences,omitempty" yaml:"preferences,omitempty"`

	// CreatedAt is when the profile was created.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is when the profile last changed.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// NewProfile validates and returns a profile. An empty literacy defaults to
// beginner. Per prd001-research-lifecycle R5.1.
func NewProfile(displayName string, literacy Literacy, now time.Time) (*ResearchProfile, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, NewError(KindValidation, "types.NewProfile", "display name is required")
	}
	lit, err := ParseLiteracy(string(literacy))
	if err != nil {
		return nil, err
	}
	return &ResearchProfile{
		ID:          "prof-" + uuid.NewString(),
		DisplayName: name,
		Literacy:    lit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
