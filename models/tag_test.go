package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagCanonical(t *testing.T) {
	assert.Equal(t, "1girl", NewTag("1girl").Canonical())
	assert.Equal(t, "uc:lowres", NewNamespacedTag("uc", "lowres").Canonical())

	assert.False(t, NewTag("1girl").IsNamespaced())
	assert.True(t, NewNamespacedTag("uc", "lowres").IsNamespaced())
}

func TestTagSetDeduplicates(t *testing.T) {
	s := NewTagSet()
	s.Add(NewTag("foo"))
	s.Add(NewTag("foo"))
	s.Add(NewNamespacedTag("uc", "foo"))

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("foo"))
	assert.True(t, s.Contains("uc:foo"))
	assert.False(t, s.Contains("bar"))
	assert.Equal(t, []string{"foo", "uc:foo"}, s.Canonicals())
}
