// File: internal/adapters/htmlstrip.go
package adapters

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML removes markup from a fragment and decodes entities, collapsing
// runs of whitespace into single spaces. Dynamic-scan descriptions embed
// paragraph tags and entities that must not reach the canonical model.
func StripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}

	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			sb.Write(tokenizer.Text())
			sb.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}
