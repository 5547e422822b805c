// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

// Package scopes implements capability scope satisfaction.
//
// A required scope is satisfied by a granted scope when the two are
// identical, or when the granted scope ends in the wildcard marker and the
// required scope starts with everything before it.
package scopes

import "strings"

// Wildcard is the suffix that turns a granted scope into a prefix pattern.
const Wildcard = "*"

// Match reports whether granted satisfies required. Required is in
// disjunctive normal form: at least one inner set must be fully satisfied.
// An empty required list is never satisfied.
func Match(granted []string, required [][]string) bool {
	for _, set := range required {
		if satisfiesAll(granted, set) {
			return true
		}
	}

	return false
}

// Satisfies reports whether a single required scope is covered by granted.
func Satisfies(granted []string, scope string) bool {
	for _, g := range granted {
		if g == scope {
			return true
		}
		if strings.HasSuffix(g, Wildcard) && strings.HasPrefix(scope, strings.TrimSuffix(g, Wildcard)) {
			return true
		}
	}

	return false
}

func satisfiesAll(granted, set []string) bool {
	for _, scope := range set {
		if !Satisfies(granted, scope) {
			return false
		}
	}

	return true
}
