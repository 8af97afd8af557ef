package utils

import (
	"strings"
	"testing"

	"github.com/anjiri1684/vedic_numerology/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomOrderNumber_Format(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := randomOrderNumber()
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(code, "VN-"), code)
		require.Len(t, code, len("VN-")+orderNumberLength)
		for _, r := range code[3:] {
			assert.Contains(t, orderNumberCharset, string(r))
		}
	}
}

func TestGenerateUniqueOrderNumber(t *testing.T) {
	db := dbtest.Open(t)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := GenerateUniqueOrderNumber(db)
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate %s", code)
		seen[code] = true
	}
}
