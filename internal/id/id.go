// Package id generates prefixed identifiers for records created on the client.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for client-assigned identifiers.
const (
	PrefixBorrow = "brw"
	PrefixBook   = "bk"
	PrefixMember = "mem"
	PrefixPost   = "post"
	PrefixNotice = "ntf"
	PrefixSub    = "sub"
)

// Generate creates a prefixed NanoID such as "brw-V1StGXR8_Z5jdHi6B-myT".
//
// Borrow slips get an identifier before they are sent so that the desk can
// refer to them even if the backend echoes the payload without assigning one.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
