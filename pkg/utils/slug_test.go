package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCodeFromName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"обрезка до шести", "Hydraulics & Boom", "HYDRAU"},
		{"короткое имя", "Tires", "TIRES"},
		{"цифры сохраняются", "Zone 2 checks", "ZONE2C"},
		{"только символы", "-- !!", ""},
		{"кириллица отбрасывается", "Шасси", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GenerateCodeFromName(tc.in, 6))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "walk_around_1.mp4", SanitizeFilename("walk around#1.mp4"))
	assert.Equal(t, "clip.mov", SanitizeFilename("../../etc/clip.mov"))
	assert.Equal(t, "file", SanitizeFilename("..."))
	assert.Equal(t, "a-b_c.MOV", SanitizeFilename("a-b_c.MOV"))
}
