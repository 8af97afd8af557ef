package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 0},
		{7, 7},
		{10, 1},
		{11, 11},
		{22, 22},
		{29, 11},
		{33, 33},
		{38, 11},
		{99, 9},
		{1990, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, reduce(tt.in), "reduce(%d)", tt.in)
	}
}

func TestLetterValue(t *testing.T) {
	assert.Equal(t, 1, letterValue('a'))
	assert.Equal(t, 9, letterValue('I'))
	assert.Equal(t, 1, letterValue('J'))
	assert.Equal(t, 1, letterValue('S'))
	assert.Equal(t, 8, letterValue('Z'))
	assert.Equal(t, 0, letterValue(' '))
	assert.Equal(t, 0, letterValue('-'))
}

func TestCalculateNumbers(t *testing.T) {
	got, err := CalculateNumbers("Asha Rao", "1990-05-15")
	require.NoError(t, err)

	want := Numbers{LifePath: 3, Destiny: 9, SoulUrge: 9, Personality: 9}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CalculateNumbers mismatch (-want +got):\n%s", diff)
	}
}

func TestLifePathNumber_MasterNumber(t *testing.T) {
	// 11 + 2 + (1+9+8+0 = 18 -> 9) = 22
	n, err := LifePathNumber("1980-11-02")
	require.NoError(t, err)
	assert.Equal(t, 22, n)
}

func TestLifePathNumber_InvalidDate(t *testing.T) {
	_, err := LifePathNumber("15/05/1990")
	assert.Error(t, err)
}
