package extract

import (
	"regexp"
	"strings"
	"sync"
)

// Strategy yields a raw field value from a document.
type Strategy func(*Document) (string, bool)

// FirstOf returns the first value any strategy yields, in order.
func FirstOf(strategies ...Strategy) Strategy {
	return func(d *Document) (string, bool) {
		for _, s := range strategies {
			if v, ok := s(d); ok {
				return v, true
			}
		}
		return "", false
	}
}

// Label reads the value stored under label in the table map.
func Label(label string) Strategy {
	return func(d *Document) (string, bool) {
		return d.Lookup(label)
	}
}

// Pattern returns the first capture group of re in the haystack.
func Pattern(re *regexp.Regexp) Strategy {
	return func(d *Document) (string, bool) {
		m := re.FindStringSubmatch(d.haystack)
		if len(m) < 2 {
			return "", false
		}
		v := strings.TrimSpace(m[1])
		return v, v != ""
	}
}

// Shape describes how an inline value looks in free text. Pattern must not
// contain capture groups. Colon requires an explicit "label:" separator, which
// free-text shapes need so a longer label is not read as the value.
type Shape struct {
	Pattern string
	Colon   bool
}

// Inline matches "label: value" text in the haystack, tolerating accents and
// punctuation between the words of the label.
func Inline(label string, shape Shape) Strategy {
	return Pattern(inlinePattern(label, shape))
}

var accentClasses = map[rune]string{
	'a': "[aáà]", 'e': "[eéè]", 'i': "[iíì]", 'o': "[oóò]", 'u': "[uúùü]", 'n': "[nñ]",
}

var inlineCache sync.Map

func inlinePattern(label string, shape Shape) *regexp.Regexp {
	key := shape.Pattern + "\x00" + label
	if shape.Colon {
		key = ":" + key
	}
	if re, ok := inlineCache.Load(key); ok {
		return re.(*regexp.Regexp)
	}

	words := strings.Fields(NormalizeLabel(label))
	for i, w := range words {
		var b strings.Builder
		for _, r := range w {
			if class, ok := accentClasses[r]; ok {
				b.WriteString(class)
				continue
			}
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
		words[i] = b.String()
	}

	sep := `[ \t]*[:.#°º-]*[ \t]*`
	if shape.Colon {
		sep = `[ \t]*:[ \t]*`
	}
	expr := `(?i)(?:^|[^\pL\d])` + strings.Join(words, `[^\pL\d\n]+`) + sep + `(` + shape.Pattern + `)`
	re, _ := inlineCache.LoadOrStore(key, regexp.MustCompile(expr))
	return re.(*regexp.Regexp)
}

// strategiesFor builds one label lookup per label, then one inline fallback per
// label, then any generic patterns.
func strategiesFor(labels []string, shape Shape, generic ...*regexp.Regexp) []Strategy {
	out := make([]Strategy, 0, 2*len(labels)+len(generic))
	for _, l := range labels {
		out = append(out, Label(l))
	}
	for _, l := range labels {
		if NormalizeLabel(l) == "" {
			continue
		}
		out = append(out, Inline(l, shape))
	}
	for _, re := range generic {
		out = append(out, Pattern(re))
	}
	return out
}

// labelFirst pairs each label's table lookup with its inline fallback, so a
// higher priority label wins wherever its value is printed.
func labelFirst(labels []string, shape Shape) []Strategy {
	out := make([]Strategy, 0, 2*len(labels))
	for _, l := range labels {
		out = append(out, Label(l))
		if NormalizeLabel(l) != "" {
			out = append(out, Inline(l, shape))
		}
	}
	return out
}

// firstParsed runs strategies in order and returns the first value that parses.
func firstParsed[T any](d *Document, strategies []Strategy, parse func(string) (T, bool)) (T, bool) {
	for _, s := range strategies {
		raw, ok := s(d)
		if !ok {
			continue
		}
		if v, ok := parse(raw); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
