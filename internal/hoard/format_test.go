package hoard

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dyluth/easel/pkg/gallery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMapping(t *testing.T) {
	tests := []struct {
		name     string
		mapping  string
		expected string
	}{
		{"empty mapping", "", "-"},
		{"compacted", `{ "a" : 1 }`, `{"a":1}`},
		{"exactly 40 chars", `"` + strings.Repeat("a", 38) + `"`, `"` + strings.Repeat("a", 38) + `"`},
		{"long mapping truncated", "[" + strings.Repeat("1,", 30) + "1]", "[" + strings.Repeat("1,", 18) + "..."},
		{"invalid json shown raw", "{oops", "{oops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatMapping(json.RawMessage(tt.mapping)))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "-", truncate("", 10))
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééééééé...", truncate(strings.Repeat("é", 12), 10), "counts runes, not bytes")
}

func TestFormatID(t *testing.T) {
	assert.Equal(t, "abc", formatID("abc"))
	assert.Equal(t, "89abcdef", formatID("01234567-89abcdef"))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "-", formatTimestamp(0))
	assert.Equal(t, "5m ago", formatTimestamp(time.Now().Add(-5*time.Minute-time.Second).UnixMilli()))
	assert.Equal(t, "3h ago", formatTimestamp(time.Now().Add(-3*time.Hour-time.Minute).UnixMilli()))
	assert.Equal(t, "2d ago", formatTimestamp(time.Now().Add(-49*time.Hour).UnixMilli()))
}

func sampleRecords() []*gallery.ArtRecord {
	return []*gallery.ArtRecord{
		{
			ID:         "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b",
			Name:       "heart",
			Author:     "ada",
			Mapping:    json.RawMessage(`{"0,0":"#f00"}`),
			Size:       5,
			CreatedAt:  time.Now().UnixMilli(),
			Generation: gallery.GenerationSized,
		},
		{
			ID:         "legacy-id",
			Name:       "old",
			Author:     "grace",
			Mapping:    json.RawMessage(`[1,0,1]`),
			Size:       5,
			Generation: gallery.GenerationLegacy,
		},
	}
}

func TestFormatTable(t *testing.T) {
	t.Run("empty records", func(t *testing.T) {
		var buf bytes.Buffer
		count := FormatTable(&buf, nil)
		assert.Contains(t, buf.String(), "No art found")
		assert.Equal(t, 0, count)
	})

	t.Run("multiple records", func(t *testing.T) {
		var buf bytes.Buffer
		count := FormatTable(&buf, sampleRecords())
		assert.Equal(t, 2, count)

		output := buf.String()
		assert.Contains(t, output, "ID")
		assert.Contains(t, output, "MAPPING")
		assert.Contains(t, output, "2e3f4a5b")
		assert.Contains(t, output, "heart")
		assert.Contains(t, output, `{"0,0":"#f00"}`)
		assert.Contains(t, output, "egacy-id")
		assert.Contains(t, output, "2 records found")
	})

	t.Run("single record count message", func(t *testing.T) {
		var buf bytes.Buffer
		FormatTable(&buf, sampleRecords()[:1])
		assert.Contains(t, buf.String(), "1 record found")
	})
}

func TestFormatJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSONL(&buf, sampleRecords()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &decoded))
		assert.Contains(t, decoded, "createdAt")
		assert.NotContains(t, decoded, "Generation")
	}
}

func TestFormatSingleJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatSingleJSON(&buf, sampleRecords()[0]))
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))
	assert.Contains(t, buf.String(), "\n  \"name\": \"heart\"")
}
