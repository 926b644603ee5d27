package bonsai

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataEntryDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    MetadataEntry
		wantErr bool
	}{
		{
			name:    "string entry",
			payload: `{"fieldname":"site","value":"lund","category":"general","type":"string"}`,
			want:    StringEntry("site", "lund", "general"),
		},
		{
			name:    "integer entry",
			payload: `{"fieldname":"reads","value":123456,"category":"qc","type":"integer"}`,
			want:    IntEntry("reads", 123456, "qc"),
		},
		{
			name:    "float entry",
			payload: `{"fieldname":"coverage","value":30.5,"category":"qc","type":"float"}`,
			want:    FloatEntry("coverage", 30.5, "qc"),
		},
		{
			name:    "datetime entry",
			payload: `{"fieldname":"collected","value":"2026-01-02T15:04:05Z","category":"general","type":"datetime"}`,
			want:    DatetimeEntry("collected", time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC), "general"),
		},
		{
			name:    "table entry",
			payload: `{"fieldname":"ast","value":"id_1","category":"general","type":"table"}`,
			want:    TableEntry("ast", "id_1", ""),
		},
		{
			name:    "missing type defaults to string",
			payload: `{"fieldname":"site","value":"lund","category":"general"}`,
			want:    StringEntry("site", "lund", "general"),
		},
		{
			name:    "unknown type",
			payload: `{"fieldname":"site","value":"lund","category":"general","type":"blob"}`,
			wantErr: true,
		},
		{
			name:    "value does not match type",
			payload: `{"fieldname":"reads","value":"many","category":"qc","type":"integer"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entry MetadataEntry
			err := json.Unmarshal([]byte(tt.payload), &entry)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, entry)
		})
	}
}

func TestMetadataEntryRoundTrip(t *testing.T) {
	entries := []MetadataEntry{
		StringEntry("site", "lund", "general"),
		IntEntry("reads", 99, "qc"),
		FloatEntry("coverage", 30.5, "qc"),
	}
	data, err := json.Marshal(entries)
	require.NoError(t, err)

	var back []MetadataEntry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, entries, back)
}

func TestSampleInputValidate(t *testing.T) {
	sequencedAt := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	valid := SampleInput{
		SampleName: "sample one",
		LimsID:     "lims_1",
		Groups:     []string{"group_1"},
		Sequencing: &SequencingInfo{
			SequencingRunID: "run_1",
			Platform:        PlatformIllumina,
			Instrument:      "NovaSeq 6000",
			SequencedAt:     &sequencedAt,
		},
		Metadata:   []MetadataEntry{IntEntry("reads", 99, "qc")},
		Owners:     []string{"user:alice"},
		Visibility: VisibilityPublic,
	}
	require.NoError(t, valid.Validate())

	missingName := valid
	missingName.SampleName = ""
	require.Error(t, missingName.Validate())

	badVisibility := valid
	badVisibility.Visibility = "hidden"
	require.Error(t, badVisibility.Validate())

	badSequencing := valid
	badSequencing.Sequencing = &SequencingInfo{Platform: PlatformIllumina}
	require.Error(t, badSequencing.Validate())

	badMetadata := valid
	badMetadata.Metadata = []MetadataEntry{{Fieldname: "reads", Value: "many", Type: MetadataInteger}}
	require.Error(t, badMetadata.Validate())
}

func TestSampleInputNormalize(t *testing.T) {
	sample := SampleInput{SampleName: "sample one"}
	sample.Normalize()
	assert.Equal(t, VisibilityPublic, sample.Visibility)

	private := SampleInput{SampleName: "sample one", Visibility: VisibilityPrivate}
	private.Normalize()
	assert.Equal(t, VisibilityPrivate, private.Visibility)
}

func TestSampleInputWireFormat(t *testing.T) {
	sample := SampleInput{
		SampleName: "sample one",
		Visibility: VisibilityOrg,
	}
	data, err := json.Marshal(sample)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "sample one", wire["sample_name"])
	assert.Equal(t, "organization", wire["visibility"])
	assert.NotContains(t, wire, "sample_id")
	assert.NotContains(t, wire, "sequencing")
}
