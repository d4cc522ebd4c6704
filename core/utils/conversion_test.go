package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"Int", 7, 7},
		{"Int64", int64(7), 7},
		{"Float", 7.9, 7},
		{"String", " 42 ", 42},
		{"Bytes", []byte("12"), 12},
		{"Garbage", "abc", 0},
		{"Nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToInt(tt.in))
		})
	}
}

func TestToIntPtr(t *testing.T) {
	assert.Nil(t, ToIntPtr(nil))
	assert.Nil(t, ToIntPtr("n/a"))
	require.NotNil(t, ToIntPtr("0"))
	assert.Equal(t, 0, *ToIntPtr("0"))
	assert.Equal(t, 150, *ToIntPtr(150.0))
}

func TestToFloat(t *testing.T) {
	assert.Nil(t, ToFloat(nil))
	assert.Nil(t, ToFloat("*"))
	assert.Nil(t, ToFloat(struct{}{}))
	assert.Equal(t, 3.0, *ToFloat("3"))
	assert.Equal(t, 1.5, *ToFloat(" 1.5 "))
	assert.Equal(t, 6.0, *ToFloat(6))
	assert.Equal(t, 0.5, *ToFloat(float32(0.5)))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "abc", ToString([]byte("abc")))
	assert.Equal(t, "3", ToString(3.0))
	assert.Equal(t, "3.25", ToString(3.25))
	assert.Equal(t, "12", ToString(12))
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool(true))
	assert.True(t, ToBool(1))
	assert.True(t, ToBool("TRUE"))
	assert.True(t, ToBool("yes"))
	assert.True(t, ToBool([]byte("1")))
	assert.False(t, ToBool(0))
	assert.False(t, ToBool("no"))
	assert.False(t, ToBool(nil))
}

func TestToStrings(t *testing.T) {
	assert.Nil(t, ToStrings(nil))
	assert.Equal(t, []string{"AR", "SC"}, ToStrings([]any{"AR", " ", "SC"}))
	assert.Equal(t, []string{"AR", "SC"}, ToStrings("AR, SC,"))
	assert.Equal(t, []string{"x"}, ToStrings([]string{"x", ""}))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "CMPUT 174 - Introduction", CleanText("\n  CMPUT 174 -\n   Introduction  "))
	assert.Equal(t, "", CleanText(" \t\n"))
}
