package domain

import (
	"encoding/hex"
	"strings"
	"time"
)

// DigestAlgorithm prefixes every content digest.
const DigestAlgorithm = "sha256"

const digestHexLen = 64

// Dependency is a content-addressed reference to an input, code or output file.
type Dependency struct {
	// Path is relative to the project root and uses forward slashes.
	Path     string    `json:"path"`
	Digest   string    `json:"digest,omitempty"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
	Revision string    `json:"revision,omitempty"`
}

// FormatDigest renders a raw sha256 sum as "sha256:<hex>".
func FormatDigest(sum []byte) string {
	return DigestAlgorithm + ":" + hex.EncodeToString(sum)
}

// ValidDigest reports whether s is a well-formed sha256 digest.
func ValidDigest(s string) bool {
	hexPart, ok := strings.CutPrefix(s, DigestAlgorithm+":")
	if !ok || len(hexPart) != digestHexLen {
		return false
	}
	_, err := hex.DecodeString(hexPart)
	return err == nil
}

// DigestHex returns the hex part of a digest, suitable as a file name.
func DigestHex(digest string) string {
	_, hexPart, _ := strings.Cut(digest, ":")
	return hexPart
}

// DependencyBody describes a deduplicated dependency as transmitted to the remote.
// Content is only set when a snapshot of the file exists in the store.
type DependencyBody struct {
	Digest   string `json:"digest"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Revision string `json:"revision,omitempty"`
	Content  []byte `json:"content,omitempty"`
}
