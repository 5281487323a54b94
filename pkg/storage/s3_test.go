package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResultKey(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "results/quiz-1/20240501T120000.000Z.json", ResultKey("quiz-1", at))
	assert.NotEqual(t, ResultKey("a/x", at), ResultKey("b/x", at))
	assert.Equal(t, "results/a%2Fx/20240501T120000.000Z.json", ResultKey("a/x", at))

	for _, room := range []string{"..", ".", "../..", "../secret"} {
		key := ResultKey(room, at)
		assert.True(t, strings.HasPrefix(key, FolderResults+"/"), key)
		parts := strings.Split(key, "/")
		assert.Len(t, parts, 3, key)
		assert.NotEqual(t, "..", parts[1], key)
		assert.NotEqual(t, ".", parts[1], key)
	}
	assert.NotEqual(t, ResultKey("..", at), ResultKey(".", at))
}
