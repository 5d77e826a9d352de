package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	t.Run("trims and drops empties", func(t *testing.T) {
		got := DedupeAndTrim([]string{"  kafka-1:9092 ", "kafka-2:9092", "", "   "})
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, got)
	})

	t.Run("preserves first occurrence order", func(t *testing.T) {
		got := DedupeAndTrim([]string{"b", "a", "b", "c", "a"})
		assert.Equal(t, []string{"b", "a", "c"}, got)
	})

	t.Run("nil and empty pass through", func(t *testing.T) {
		assert.Nil(t, DedupeAndTrim(nil))
		assert.Empty(t, DedupeAndTrim([]string{}))
	})
}
