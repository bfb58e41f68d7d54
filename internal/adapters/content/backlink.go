package content

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// BackHrefAttr carries the back target on the fragment's back control.
const BackHrefAttr = "data-back-href"

// RewireBack sets BackHrefAttr on the first <button> start tag of fragment
// and drops its inline onclick handler. Everything else is copied through
// byte for byte. It reports whether a button was found.
func RewireBack(fragment, href string) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	b.Grow(len(fragment) + len(href) + 32)
	done := false

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if !errors.Is(z.Err(), io.EOF) {
				// tokenizer gave up; keep the original markup
				return fragment, false
			}
			break
		}
		raw := z.Raw()
		if !done && tt == html.StartTagToken {
			raw = append([]byte(nil), raw...)
			if tok := z.Token(); tok.Data == "button" {
				tok.Attr = setAttr(dropAttr(tok.Attr, "onclick"), BackHrefAttr, href)
				b.WriteString(tok.String())
				done = true
				continue
			}
		}
		b.Write(raw)
	}
	return b.String(), done
}

func setAttr(attrs []html.Attribute, key, val string) []html.Attribute {
	for i := range attrs {
		if attrs[i].Key == key {
			attrs[i].Val = val
			return attrs
		}
	}
	return append(attrs, html.Attribute{Key: key, Val: val})
}

func dropAttr(attrs []html.Attribute, key string) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		if a.Key != key {
			out = append(out, a)
		}
	}
	return out
}
