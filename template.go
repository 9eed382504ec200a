// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package requestlog

import (
	"fmt"
	"strings"
)

// DefaultMessageTemplate is used when no template is configured.
const DefaultMessageTemplate = "{Method} {Path}{QueryString} responded {StatusCode} in {ElapsedMs} ms."

// Template is a compiled message template: literal text interleaved with
// brace-delimited property references. It is immutable and safe for
// concurrent use.
type Template struct {
	text       string
	segments   []segment
	properties []Property
}

// segment is either literal text or, when hole is set, a reference to
// the property at index prop.
type segment struct {
	text string
	hole bool
	prop int
}

// ParseTemplate validates text and compiles it into a [Template].
//
// A template is valid when it is not blank and every "{...}" pair encloses a
// non-empty run of ASCII letters. Two opening braces without a closing brace
// between them, or two closing braces without an opening brace between them,
// make the template invalid. A lone "{" that is never closed, or a lone "}"
// that was never opened, is literal text.
//
// Compilation is all-or-nothing: on failure the returned error is a
// [*ConfigError] matching [ErrInvalidTemplate].
func ParseTemplate(text string) (*Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalidTemplateError()
	}

	t := &Template{text: text}

	var (
		last     byte // last brace seen: 0, '{' or '}'
		open     int  // index of the last '{'
		litStart int
	)

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			if last == '{' {
				return nil, invalidTemplateError()
			}
			last, open = '{', i

		case '}':
			switch last {
			case '}':
				return nil, invalidTemplateError()
			case '{':
				name := text[open+1 : i]
				if !isLetters(name) {
					return nil, invalidTemplateError()
				}
				if open > litStart {
					t.segments = append(t.segments, segment{text: text[litStart:open]})
				}
				t.segments = append(t.segments, segment{text: name, hole: true, prop: len(t.properties)})
				t.properties = append(t.properties, classifyProperty(name))
				litStart = i + 1
			}
			last = '}'
		}
	}

	if litStart < len(text) {
		t.segments = append(t.segments, segment{text: text[litStart:]})
	}

	return t, nil
}

// MustParseTemplate is like [ParseTemplate] but panics on error.
func MustParseTemplate(text string) *Template {
	t, err := ParseTemplate(text)
	if err != nil {
		panic(err)
	}

	return t
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}

	return true
}

// Text returns the template source.
func (t *Template) Text() string {
	return t.text
}

// String implements [fmt.Stringer].
func (t *Template) String() string {
	return t.text
}

// Properties returns the property references in template order.
// Repeated references appear once per occurrence.
func (t *Template) Properties() []Property {
	props := make([]Property, len(t.properties))
	copy(props, t.properties)

	return props
}

// NumProperties returns the number of property references.
func (t *Template) NumProperties() int {
	return len(t.properties)
}

// Render substitutes values positionally into the template. A nil value
// renders as the empty string; missing values leave the placeholder intact.
func (t *Template) Render(values []any) string {
	if len(t.properties) == 0 {
		return t.text
	}

	var b strings.Builder
	b.Grow(len(t.text) + 8*len(t.properties))

	for _, seg := range t.segments {
		if !seg.hole {
			b.WriteString(seg.text)
			continue
		}
		if seg.prop >= len(values) {
			b.WriteByte('{')
			b.WriteString(seg.text)
			b.WriteByte('}')
			continue
		}
		writeValue(&b, values[seg.prop])
	}

	return b.String()
}

func writeValue(b *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
	case string:
		b.WriteString(v)
	default:
		fmt.Fprint(b, v)
	}
}
