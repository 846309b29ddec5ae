// Package id generates short prefixed identifiers for runtime objects
// (event stream clients, requests). Catalog rows use database integer keys.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefix tags an identifier with the kind of object it names.
type Prefix string

const (
	StreamClient Prefix = "sse"
	Request      Prefix = "req"
)

// alphabet has no '-' so the prefix separator stays unambiguous.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const size = 16

// Generate returns "<prefix>-<16 alphanumerics>", e.g. "sse-4fJx0QmZ9aLr2cTb".
func Generate(p Prefix) (string, error) {
	s, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate %s id: %w", p, err)
	}
	return string(p) + "-" + s, nil
}

// Has reports whether v was generated with prefix p.
func Has(v string, p Prefix) bool {
	rest, ok := strings.CutPrefix(v, string(p)+"-")
	return ok && len(rest) == size
}
