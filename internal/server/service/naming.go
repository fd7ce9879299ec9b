package service

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// RenamePolicy controls how an uploaded name becomes the stored name.
type RenamePolicy string

const (
	RenameVerbatim RenamePolicy = ""
	RenameRandom   RenamePolicy = "RANDOM"
	RenameHash     RenamePolicy = "HASH"
)

// ParseRenamePolicy accepts the wire values, including the legacy
// aliases AUTO (random) and MD5 (hash).
func ParseRenamePolicy(s string) (RenamePolicy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return RenameVerbatim, nil
	case "RANDOM", "AUTO":
		return RenameRandom, nil
	case "HASH", "MD5":
		return RenameHash, nil
	}
	return RenameVerbatim, ErrUnknownRenamePolicy
}

// Namer derives stored file names. Token and Hash are swappable for tests.
type Namer struct {
	Token func() string
	Hash  func(s string) string
}

func DefaultNamer() Namer {
	return Namer{Token: uuid.NewString, Hash: md5Hex}
}

// GenerateFileName applies policy to original. HASH digests the name string
// itself, not the file content.
func (n Namer) GenerateFileName(original string, policy RenamePolicy) string {
	switch policy {
	case RenameRandom:
		return withExtension(n.Token(), extension(original))
	case RenameHash:
		return withExtension(n.Hash(original), extension(original))
	default:
		return original
	}
}

// extension returns the text after the last dot, or "" when there is none.
func extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

func withExtension(stem, ext string) string {
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
