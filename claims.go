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
	"context"
	"sync"
)

// Claim is one identity claim of the authenticated caller.
type Claim struct {
	Type  string
	Value any
}

type claimsKey struct{}

// claimSet collects the claims attached while a request is in flight.
type claimSet struct {
	mu     sync.Mutex
	claims []Claim
}

// withClaimSet installs a fresh claim set into ctx.
func withClaimSet(ctx context.Context) (context.Context, *claimSet) {
	cs := &claimSet{}

	return context.WithValue(ctx, claimsKey{}, cs), cs
}

func (cs *claimSet) add(claims ...Claim) {
	cs.mu.Lock()
	cs.claims = append(cs.claims, claims...)
	cs.mu.Unlock()
}

func (cs *claimSet) snapshot() []Claim {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if len(cs.claims) == 0 {
		return nil
	}
	out := make([]Claim, len(cs.claims))
	copy(out, cs.claims)

	return out
}

// AddClaims attaches identity claims to the request that ctx belongs to, so
// that Claim* properties can resolve them once the request completes.
// It reports false when ctx was not derived from an intercepted request.
//
// Example:
//
//	func authenticate(next http.Handler) http.Handler {
//		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//			requestlog.AddClaims(r.Context(), requestlog.Claim{Type: "user-id", Value: "42"})
//			next.ServeHTTP(w, r)
//		})
//	}
func AddClaims(ctx context.Context, claims ...Claim) bool {
	cs, ok := ctx.Value(claimsKey{}).(*claimSet)
	if !ok {
		return false
	}
	cs.add(claims...)

	return true
}

// ClaimsFromContext returns the claims attached so far to the request that
// ctx belongs to.
func ClaimsFromContext(ctx context.Context) []Claim {
	cs, ok := ctx.Value(claimsKey{}).(*claimSet)
	if !ok {
		return nil
	}

	return cs.snapshot()
}
