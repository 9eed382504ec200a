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
	"net"
	"net/http"
	"strings"
	"time"
)

// Kind classifies how a property reference is resolved.
type Kind uint8

const (
	// KindSimple is one of the fixed request/response properties.
	KindSimple Kind = iota
	// KindHeader reads a request header.
	KindHeader
	// KindClaim reads an identity claim.
	KindClaim
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindClaim:
		return "claim"
	default:
		return "simple"
	}
}

const (
	headerPrefix = "Header"
	claimPrefix  = "Claim"
)

// Property is one placeholder of a [Template].
type Property struct {
	// Name is the placeholder body, e.g. "Method" or "HeaderUserAgent".
	Name string

	// Kind tells how the value is looked up.
	Kind Kind

	// Key is the header name or claim type for [KindHeader] and [KindClaim]
	// properties, e.g. "user-agent" for "HeaderUserAgent". Empty for simple ones.
	Key string
}

// classifyProperty resolves the dynamic Header*/Claim* families once, at
// compile time. A bare "Header" or "Claim" stays simple and is rejected later
// as an unexpected property.
func classifyProperty(name string) Property {
	switch {
	case len(name) > len(headerPrefix) && strings.HasPrefix(name, headerPrefix):
		return Property{Name: name, Kind: KindHeader, Key: LookupKey(name[len(headerPrefix):])}
	case len(name) > len(claimPrefix) && strings.HasPrefix(name, claimPrefix):
		return Property{Name: name, Kind: KindClaim, Key: LookupKey(name[len(claimPrefix):])}
	default:
		return Property{Name: name, Kind: KindSimple}
	}
}

// LookupKey converts a PascalCase suffix into a lower-case, dash-separated
// lookup key: "UserAgent" becomes "user-agent", "XRequestId" becomes
// "x-request-id".
func LookupKey(suffix string) string {
	var b strings.Builder
	b.Grow(len(suffix) + 4)

	for i := 0; i < len(suffix); i++ {
		c := suffix[i]
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Outcome is the per-request snapshot that property values are resolved
// from. It is built after the downstream call returned or failed and is
// never shared between requests.
type Outcome struct {
	Method          string
	Path            string
	QueryString     string
	Protocol        string
	Scheme          string
	RemoteIPAddress string
	UserAgent       string
	Header          http.Header
	Claims          []Claim
	StatusCode      int
	Elapsed         time.Duration
}

// NewOutcome captures the request attributes of r together with the final
// status code, elapsed time and identity claims.
func NewOutcome(r *http.Request, statusCode int, elapsed time.Duration, claims []Claim) *Outcome {
	o := &Outcome{
		Method:     r.Method,
		Protocol:   r.Proto,
		Scheme:     scheme(r),
		UserAgent:  r.UserAgent(),
		Header:     r.Header,
		Claims:     claims,
		StatusCode: statusCode,
		Elapsed:    elapsed,
	}

	if r.URL != nil {
		o.Path = r.URL.Path
		if r.URL.RawQuery != "" {
			o.QueryString = "?" + r.URL.RawQuery
		}
	}

	o.RemoteIPAddress = remoteIP(r.RemoteAddr)

	return o
}

// ElapsedMs returns the elapsed time in whole milliseconds.
func (o *Outcome) ElapsedMs() int64 {
	return o.Elapsed.Milliseconds()
}

// HeaderValue returns all values of the named request header joined by ", ",
// or the empty string when the header is absent.
func (o *Outcome) HeaderValue(key string) string {
	values := o.Header.Values(key)
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return strings.Join(values, ", ")
	}
}

// ClaimValue returns the value of the first claim of the given type, or nil
// when there is none.
func (o *Outcome) ClaimValue(claimType string) any {
	for _, c := range o.Claims {
		if c.Type == claimType {
			return c.Value
		}
	}

	return nil
}

func scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if r.URL != nil && r.URL.Scheme != "" {
		return r.URL.Scheme
	}

	return "http"
}

func remoteIP(addr string) string {
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}

	return strings.Trim(addr, "[]")
}

type valueFunc func(o *Outcome) any

// simpleProperties is the fixed set of simple property names.
var simpleProperties = map[string]valueFunc{
	"Method":          func(o *Outcome) any { return o.Method },
	"Path":            func(o *Outcome) any { return o.Path },
	"QueryString":     func(o *Outcome) any { return o.QueryString },
	"Protocol":        func(o *Outcome) any { return o.Protocol },
	"Scheme":          func(o *Outcome) any { return o.Scheme },
	"RemoteIpAddress": func(o *Outcome) any { return o.RemoteIPAddress },
	"UserAgent":       func(o *Outcome) any { return o.UserAgent },
	"StatusCode":      func(o *Outcome) any { return o.StatusCode },
	"ElapsedMs":       func(o *Outcome) any { return o.ElapsedMs() },
}

// resolver turns an [Outcome] into the ordered value list of a template.
type resolver struct {
	funcs []valueFunc
}

// newResolver binds every property to its lookup. The first property that
// cannot be bound, in template order, is reported.
func newResolver(props []Property) (*resolver, error) {
	r := &resolver{funcs: make([]valueFunc, len(props))}

	for i, p := range props {
		switch p.Kind {
		case KindHeader:
			key := p.Key
			r.funcs[i] = func(o *Outcome) any { return o.HeaderValue(key) }
		case KindClaim:
			key := p.Key
			r.funcs[i] = func(o *Outcome) any { return o.ClaimValue(key) }
		default:
			fn, ok := simpleProperties[p.Name]
			if !ok {
				return nil, unexpectedPropertyError(p.Name)
			}
			r.funcs[i] = fn
		}
	}

	return r, nil
}

func (r *resolver) resolve(o *Outcome) []any {
	if len(r.funcs) == 0 {
		return nil
	}

	values := make([]any, len(r.funcs))
	for i, fn := range r.funcs {
		values[i] = fn(o)
	}

	return values
}

// ResolveProperty resolves a single property name against o. It accepts the
// same names as a template and fails with [ErrUnexpectedProperty] otherwise.
func ResolveProperty(name string, o *Outcome) (any, error) {
	r, err := newResolver([]Property{classifyProperty(name)})
	if err != nil {
		return nil, err
	}

	return r.resolve(o)[0], nil
}
