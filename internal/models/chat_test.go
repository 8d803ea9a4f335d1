package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalID(t *testing.T) {
	const id = "6d3c6a2e-4f7e-4b9f-a0c8-9b2c41a8e2f1"

	for _, raw := range []string{id, strings.ToUpper(id), "{" + id + "}", "urn:uuid:" + id} {
		got, ok := CanonicalID(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, id, got, raw)
	}

	_, ok := CanonicalID("alice")
	assert.False(t, ok)
	_, ok = CanonicalID("")
	assert.False(t, ok)
}
