// Package id generates opaque identifiers for tokens and requests.
// Menu items use integer ids from the store; nothing here touches them.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes in use.
const (
	PrefixToken   = "tok"
	PrefixRequest = "req"
)

// shortAlphabet avoids look-alike characters in ids that end up in logs.
const shortAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"

// ShortLength is the length of the random part of Short ids.
const ShortLength = 12

// Generate returns prefix-<21 char nanoid>, e.g. "tok-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// Short returns prefix-<12 lowercase chars>, for request ids.
func Short(prefix string) (string, error) {
	id, err := gonanoid.Generate(shortAlphabet, ShortLength)
	if err != nil {
		return "", fmt.Errorf("generate short id: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if the system is out of entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
