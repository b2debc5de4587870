// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"fmt"
	"strings"
)

// PrefixLength is the number of leading characters compared when
// detecting duplicate content
const PrefixLength = 100

const summaryCut = PrefixLength - 3

// Summarize returns content verbatim when it fits in PrefixLength
// characters, otherwise the first 97 characters followed by "...".
func Summarize(content string) string {
	runes := []rune(content)
	if len(runes) <= PrefixLength {
		return content
	}
	return string(runes[:summaryCut]) + "..."
}

// ContentKey is the normalized prefix used for duplicate detection:
// the first PrefixLength characters, lowercased.
func ContentKey(content string) string {
	runes := []rune(content)
	if len(runes) > PrefixLength {
		runes = runes[:PrefixLength]
	}
	return strings.ToLower(string(runes))
}

// ContextEntry is one line of a rendered context block
type ContextEntry struct {
	Type       Type
	Confidence Confidence
	Summary    string
}

// RenderContext formats entries as the markdown block injected into an
// assistant session. Entry order is preserved.
func RenderContext(entries []ContextEntry) string {
	var b strings.Builder
	b.WriteString("## Memory Context\n\n")
	if len(entries) == 0 {
		b.WriteString("No memories loaded.\n")
		return b.String()
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s **%s**: %s\n", e.Confidence.Symbol(), e.Type, e.Summary)
	}
	return b.String()
}
