// Package htmltext extracts readable text from HTML fragments. It is a
// deliberately small tag stripper for keyword matching and token counting,
// not a browser-grade parser.
package htmltext

import "strings"

var skippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
}

// Extract strips tags from the given HTML and returns whitespace-normalized
// text. Content of script, style and head elements is dropped entirely.
func Extract(html string) string {
	var b strings.Builder
	b.Grow(len(html))

	skipDepth := 0
	for i := 0; i < len(html); {
		if html[i] != '<' {
			if skipDepth == 0 {
				b.WriteByte(html[i])
			}
			i++
			continue
		}

		end := strings.IndexByte(html[i:], '>')
		if end == -1 {
			break
		}
		tag := html[i+1 : i+end]
		name, closing := tagName(tag)
		if skippedElements[name] {
			if closing {
				if skipDepth > 0 {
					skipDepth--
				}
			} else if !strings.HasSuffix(tag, "/") {
				skipDepth++
			}
		}
		if skipDepth == 0 {
			// Tags separate words even when markup has no whitespace.
			b.WriteByte(' ')
		}
		i += end + 1
	}

	return strings.Join(strings.Fields(decodeEntities(b.String())), " ")
}

func tagName(tag string) (name string, closing bool) {
	tag = strings.TrimSpace(tag)
	if strings.HasPrefix(tag, "/") {
		closing = true
		tag = tag[1:]
	}
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '>' || c == '/' {
			tag = tag[:i]
			break
		}
	}
	return strings.ToLower(tag), closing
}

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
)

func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return entityReplacer.Replace(s)
}
