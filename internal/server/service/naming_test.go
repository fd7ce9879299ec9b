package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNamer() Namer {
	return Namer{
		Token: func() string { return "tok" },
		Hash:  func(s string) string { return "h(" + s + ")" },
	}
}

func TestGenerateFileName(t *testing.T) {
	n := fixedNamer()

	tests := []struct {
		name     string
		original string
		policy   RenamePolicy
		expected string
	}{
		{"verbatim", "file.txt", RenameVerbatim, "file.txt"},
		{"random keeps extension", "file.txt", RenameRandom, "tok.txt"},
		{"hash over the name", "file.txt", RenameHash, "h(file.txt).txt"},
		{"last dot wins", "archive.tar.gz", RenameRandom, "tok.gz"},
		{"no extension random", "README", RenameRandom, "tok"},
		{"no extension hash", "README", RenameHash, "h(README)"},
		{"no extension verbatim", "README", RenameVerbatim, "README"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.GenerateFileName(tt.original, tt.policy))
		})
	}
}

func TestDefaultNamer(t *testing.T) {
	n := DefaultNamer()

	t.Run("hash is md5 of the name", func(t *testing.T) {
		// md5("file.txt")
		assert.Equal(t, "3d8e577bddb17db339eae0b3d9bcf180.txt", n.GenerateFileName("file.txt", RenameHash))
	})

	t.Run("random is a uuid", func(t *testing.T) {
		got := n.GenerateFileName("photo.jpg", RenameRandom)
		require.Len(t, got, 36+len(".jpg"))
		_, err := uuid.Parse(got[:36])
		assert.NoError(t, err)
	})
}

func TestParseRenamePolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected RenamePolicy
	}{
		{"", RenameVerbatim},
		{"RANDOM", RenameRandom},
		{"AUTO", RenameRandom},
		{"hash", RenameHash},
		{"MD5", RenameHash},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRenamePolicy(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseRenamePolicy("SHUFFLE")
		assert.ErrorIs(t, err, ErrUnknownRenamePolicy)
	})
}
