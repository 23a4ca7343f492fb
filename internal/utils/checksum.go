package utils

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
)

// CalculateChecksum calculates a specific checksum for data
func CalculateChecksum(data []byte, hashType string) (string, error) {
	var h hash.Hash

	switch hashType {
	case "md5":
		h = md5.New()
	case "sha1":
		h = sha1.New()
	case "sha256":
		h = sha256.New()
	case "sha512":
		h = sha512.New()
	default:
		return "", fmt.Errorf("unsupported checksum type: %s", hashType)
	}

	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyChecksum checks data against an expected checksum. repomd.xml
// announces the checksum of every repodata payload; fetched payloads are
// verified against it before parsing.
func VerifyChecksum(data []byte, hashType, expected string) error {
	actual, err := CalculateChecksum(data, hashType)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("%s checksum mismatch: expected %s, got %s", hashType, expected, actual)
	}
	return nil
}
