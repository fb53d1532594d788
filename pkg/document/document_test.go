package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Document {
	return Document{
		"name": "John",
		"address": map[string]any{
			"city": "Belgrade",
		},
		"teams": []any{
			map[string]any{"name": "red"},
			Document{"name": "blue"},
			"loose",
		},
	}
}

func TestDocument_Get(t *testing.T) {
	d := sample()

	tests := []struct {
		name   string
		path   []string
		want   any
		wantOK bool
	}{
		{"top-level field", []string{"name"}, "John", true},
		{"nested map[string]any", []string{"address", "city"}, "Belgrade", true},
		{"array element field", []string{"teams[0]", "name"}, "red", true},
		{"array element Document", []string{"teams[1]", "name"}, "blue", true},
		{"array scalar", []string{"teams[2]"}, "loose", true},
		{"missing field", []string{"age"}, nil, false},
		{"index out of range", []string{"teams[3]"}, nil, false},
		{"index into non-array", []string{"name[0]"}, nil, false},
		{"descend into scalar", []string{"name", "first"}, nil, false},
		{"malformed segment", []string{"teams[x]"}, nil, false},
		{"negative index", []string{"teams[-1]"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.Get(tt.path...)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}

	t.Run("empty path is the document", func(t *testing.T) {
		got, ok := d.Get()
		require.True(t, ok)
		assert.Equal(t, d, got)
	})
}

func TestDocument_GetString(t *testing.T) {
	d := sample()

	s, ok := d.GetString("address", "city")
	assert.True(t, ok)
	assert.Equal(t, "Belgrade", s)

	_, ok = d.GetString("address")
	assert.False(t, ok, "object is not a string")
}

func TestDocument_Set(t *testing.T) {
	t.Run("creates intermediate objects", func(t *testing.T) {
		d := New()
		require.NoError(t, d.Set("ABCDEF", "licence", "number"))
		s, ok := d.GetString("licence", "number")
		assert.True(t, ok)
		assert.Equal(t, "ABCDEF", s)
	})

	t.Run("overwrites existing value", func(t *testing.T) {
		d := sample()
		require.NoError(t, d.Set("James", "name"))
		s, _ := d.GetString("name")
		assert.Equal(t, "James", s)
	})

	t.Run("writes into array element", func(t *testing.T) {
		d := sample()
		require.NoError(t, d.Set("green", "teams[0]", "name"))
		s, _ := d.GetString("teams[0]", "name")
		assert.Equal(t, "green", s)

		require.NoError(t, d.Set("replaced", "teams[2]"))
		s, _ = d.GetString("teams[2]")
		assert.Equal(t, "replaced", s)
	})

	t.Run("errors", func(t *testing.T) {
		d := sample()
		assert.ErrorIs(t, d.Set("x"), ErrInvalidPath)
		assert.ErrorIs(t, d.Set("x", "teams[9]"), ErrInvalidPath)
		assert.ErrorIs(t, d.Set("x", "name", "first"), ErrNotObject)
		assert.ErrorIs(t, d.Set("x", "teams[2]", "name"), ErrNotObject)
		assert.ErrorIs(t, d.Set("x", "bad]"), ErrInvalidPath)
	})
}

func TestDocument_Delete(t *testing.T) {
	d := sample()
	assert.True(t, d.Delete("address", "city"))
	assert.False(t, d.Delete("address", "city"))
	assert.False(t, d.Delete("nowhere", "city"))
	assert.False(t, d.Delete())

	_, ok := d.Get("address", "city")
	assert.False(t, ok)
}

func TestDocument_Clone(t *testing.T) {
	d := sample()
	c, err := d.Clone()
	require.NoError(t, err)

	require.NoError(t, c.Set("Paris", "address", "city"))
	s, _ := d.GetString("address", "city")
	assert.Equal(t, "Belgrade", s, "clone must not share nested objects")

	_, err = Document{"ch": make(chan int)}.Clone()
	assert.Error(t, err)
}
