package utils

import (
	// Go Internal Packages
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
)

func TestJoinInt32Slice(t *testing.T) {
	assert.Equal(t, "", JoinInt32Slice(nil))
	assert.Equal(t, "0,3,12", JoinInt32Slice([]int32{0, 3, 12}))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "REF1", FirstNonEmpty("", "  ", " REF1 ", "REF2"))
	assert.Equal(t, "", FirstNonEmpty("", " "))
}
