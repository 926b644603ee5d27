// Package bonsai contains the sample DTOs accepted and returned by the
// Bonsai API.
package bonsai

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Visibility determines who can see a record.
type Visibility string

// Supported visibility levels.
const (
	VisibilityPrivate Visibility = "private"
	VisibilityOrg     Visibility = "organization"
	VisibilityPublic  Visibility = "public"
)

// SequencingPlatform is a supported sequencing platform.
type SequencingPlatform string

// Supported sequencing platforms.
const (
	PlatformIllumina   SequencingPlatform = "illumina"
	PlatformIonTorrent SequencingPlatform = "ion torrent"
	PlatformONT        SequencingPlatform = "oxford nanopore technologies"
	PlatformBGI        SequencingPlatform = "bgi"
	PlatformPacBio     SequencingPlatform = "Pacific Biosciences"
)

// SequencingInfo describes how a sample was sequenced.
type SequencingInfo struct {
	SequencingRunID string             `json:"sequencing_run_id" validate:"required"`
	Platform        SequencingPlatform `json:"platform" validate:"required"`
	Instrument      string             `json:"instrument,omitempty"`
	Method          map[string]string  `json:"method,omitempty"`
	SequencedAt     *time.Time         `json:"sequenced_at,omitempty"`
}

// MetadataType discriminates the metadata entry variants.
type MetadataType string

// Metadata entry variants.
const (
	MetadataString   MetadataType = "string"
	MetadataInteger  MetadataType = "integer"
	MetadataFloat    MetadataType = "float"
	MetadataDatetime MetadataType = "datetime"
	MetadataTable    MetadataType = "table"
)

// MetadataEntry is one sample metadata record. Value holds a string,
// int64, float64 or time.Time depending on Type.
type MetadataEntry struct {
	Fieldname string       `json:"fieldname"`
	Value     any          `json:"value"`
	Category  string       `json:"category"`
	Type      MetadataType `json:"type"`
}

type rawMetadataEntry struct {
	Fieldname string          `json:"fieldname"`
	Value     json.RawMessage `json:"value"`
	Category  string          `json:"category"`
	Type      MetadataType    `json:"type"`
}

// UnmarshalJSON decodes Value according to the type discriminator.
func (m *MetadataEntry) UnmarshalJSON(data []byte) error {
	var raw rawMetadataEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Fieldname = raw.Fieldname
	m.Category = raw.Category
	m.Type = raw.Type

	switch raw.Type {
	case MetadataString, MetadataTable, "":
		var v string
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("metadata %q: %w", raw.Fieldname, err)
		}
		m.Value = v
		if raw.Type == "" {
			m.Type = MetadataString
		}
	case MetadataInteger:
		var v int64
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("metadata %q: %w", raw.Fieldname, err)
		}
		m.Value = v
	case MetadataFloat:
		var v float64
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("metadata %q: %w", raw.Fieldname, err)
		}
		m.Value = v
	case MetadataDatetime:
		var v time.Time
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("metadata %q: %w", raw.Fieldname, err)
		}
		m.Value = v
	default:
		return fmt.Errorf("metadata %q: unknown type %q", raw.Fieldname, raw.Type)
	}
	return nil
}

// StringEntry builds a string metadata entry.
func StringEntry(fieldname, value, category string) MetadataEntry {
	return MetadataEntry{Fieldname: fieldname, Value: value, Category: category, Type: MetadataString}
}

// IntEntry builds an integer metadata entry.
func IntEntry(fieldname string, value int64, category string) MetadataEntry {
	return MetadataEntry{Fieldname: fieldname, Value: value, Category: category, Type: MetadataInteger}
}

// FloatEntry builds a float metadata entry.
func FloatEntry(fieldname string, value float64, category string) MetadataEntry {
	return MetadataEntry{Fieldname: fieldname, Value: value, Category: category, Type: MetadataFloat}
}

// DatetimeEntry builds a datetime metadata entry.
func DatetimeEntry(fieldname string, value time.Time, category string) MetadataEntry {
	return MetadataEntry{Fieldname: fieldname, Value: value, Category: category, Type: MetadataDatetime}
}

// TableEntry builds a table metadata entry; category defaults to general.
func TableEntry(fieldname, value, category string) MetadataEntry {
	if category == "" {
		category = "general"
	}
	return MetadataEntry{Fieldname: fieldname, Value: value, Category: category, Type: MetadataTable}
}

// validate checks the value against the declared type.
func (m *MetadataEntry) validate() error {
	if m.Fieldname == "" {
		return fmt.Errorf("metadata entry missing fieldname")
	}
	ok := false
	switch m.Type {
	case MetadataString, MetadataTable:
		_, ok = m.Value.(string)
	case MetadataInteger:
		switch m.Value.(type) {
		case int, int64:
			ok = true
		}
	case MetadataFloat:
		_, ok = m.Value.(float64)
	case MetadataDatetime:
		_, ok = m.Value.(time.Time)
	default:
		return fmt.Errorf("metadata %q: unknown type %q", m.Fieldname, m.Type)
	}
	if !ok {
		return fmt.Errorf("metadata %q: value %v is not a %s", m.Fieldname, m.Value, m.Type)
	}
	return nil
}

// SampleInput is the payload for creating a sample in Bonsai.
type SampleInput struct {
	SampleID   string `json:"sample_id,omitempty"`
	SampleName string `json:"sample_name" validate:"required"`
	LimsID     string `json:"lims_id,omitempty"`

	// Groups holds group ids the sample is assigned to.
	Groups []string `json:"groups,omitempty"`

	Sequencing *SequencingInfo `json:"sequencing,omitempty"`
	Metadata   []MetadataEntry `json:"metadata,omitempty"`

	// Access control: owner identifiers (user:<id>), organization ids
	// (org:<id>) and optional access groups.
	Owners             []string   `json:"owners,omitempty"`
	OwnerOrganizations []string   `json:"owner_organizations,omitempty"`
	AccessGroups       []string   `json:"access_groups,omitempty"`
	Visibility         Visibility `json:"visibility" validate:"omitempty,oneof=private organization public"`
}

// Normalize fills defaults expected by the Bonsai API.
func (s *SampleInput) Normalize() {
	if s.Visibility == "" {
		s.Visibility = VisibilityPublic
	}
}

// Validate reports whether the sample payload is well formed.
func (s *SampleInput) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid sample: %w", err)
	}
	if s.Sequencing != nil {
		if err := validator.New().Struct(s.Sequencing); err != nil {
			return fmt.Errorf("invalid sequencing info: %w", err)
		}
	}
	for i := range s.Metadata {
		if err := s.Metadata[i].validate(); err != nil {
			return fmt.Errorf("metadata entry %d: %w", i, err)
		}
	}
	return nil
}

// CreateSampleResponse is returned by the Bonsai API after a sample was
// created.
type CreateSampleResponse struct {
	InsertedID       string `json:"inserted_id"`
	InternalSampleID string `json:"internal_sample_id"`
	ExternalSampleID string `json:"external_sample_id"`
}
