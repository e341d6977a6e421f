package tagexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_OptionLists(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		expected []Option
	}{
		{
			name:     "empty tag",
			tag:      "",
			expected: nil,
		},
		{
			name:     "single flag",
			tag:      "optional",
			expected: []Option{{Name: "optional"}},
		},
		{
			name: "valued option",
			tag:  "group=db",
			expected: []Option{
				{Name: "group", Value: "db", HasValue: true},
			},
		},
		{
			name: "flag and valued option",
			tag:  "optional,group=db",
			expected: []Option{
				{Name: "optional"},
				{Name: "group", Value: "db", HasValue: true},
			},
		},
		{
			name: "whitespace tolerated",
			tag:  " optional , group=db ",
			expected: []Option{
				{Name: "optional"},
				{Name: "group", Value: "db", HasValue: true},
			},
		},
		{
			name: "quoted value",
			tag:  `label="primary db"`,
			expected: []Option{
				{Name: "label", Value: "primary db", HasValue: true},
			},
		},
		{
			name: "numeric value",
			tag:  "weight=10",
			expected: []Option{
				{Name: "weight", Value: "10", HasValue: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options, err := Parse(tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, options)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		tag  string
	}{
		{name: "dangling comma", tag: "optional,"},
		{name: "missing value", tag: "group="},
		{name: "value without name", tag: "=db"},
		{name: "skip marker", tag: "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.tag)
			assert.Error(t, err)
		})
	}
}

func TestIsSkip(t *testing.T) {
	assert.True(t, IsSkip("-"))
	assert.True(t, IsSkip(" - "))
	assert.False(t, IsSkip(""))
	assert.False(t, IsSkip("optional"))
}
