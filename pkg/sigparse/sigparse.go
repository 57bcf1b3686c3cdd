// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sigparse parses type annotation text: the arrow chain of a
// function's declared type, the fields of a record type literal, and
// the head constructor of a type application. It is dependency-free so
// it can be imported by both pkg/symbolindex (reading a declared
// signature's text) and pkg/typeresolve (matching a parameter position
// against its declared type).
package sigparse

import "strings"

// ParamInfo holds one parameter position's declared type, paired with
// the pattern name bound at that position (supplied by the caller from
// the function's parsed parameter list — the annotation text itself
// carries no names).
type ParamInfo struct {
	Name string // the bound pattern name at this position, e.g. "person"
	Type string // the base type name at this position, e.g. "Person"
}

// ParseParams zips a function's bound parameter names against its
// declared type annotation, returning the base type for each position.
//
// Elm type annotations carry no parameter names ("Person -> String"),
// so the names come from the function's parsed parameter patterns.
// Extra trailing segments (the return type, and anything beyond
// len(paramNames)) are dropped.
func ParseParams(signature string, paramNames []string) []ParamInfo {
	if signature == "" || len(paramNames) == 0 {
		return nil
	}

	segments := SplitArrowChain(signature)
	if len(segments) == 0 {
		return nil
	}
	if len(segments) > len(paramNames) {
		segments = segments[:len(paramNames)]
	}

	var params []ParamInfo
	for i, seg := range segments {
		if i >= len(paramNames) {
			break
		}
		params = append(params, ParamInfo{
			Name: paramNames[i],
			Type: BaseTypeName(seg),
		})
	}
	return params
}

// ExtractParamString extracts the parameter portion of a declared
// signature — every arrow segment but the last (the return type).
// Given "Person -> String" returns "Person". Given a signature with no
// arrow (a value, not a function), returns "".
func ExtractParamString(sig string) string {
	segments := SplitArrowChain(sig)
	if len(segments) < 2 {
		return ""
	}
	return strings.Join(segments[:len(segments)-1], " -> ")
}

// SplitArrowChain splits a type annotation on its top-level "->"
// arrows.
//
//	"Person -> String"             → ["Person", "String"]
//	"String -> String -> Person"     → ["String", "String", "Person"]
//	"(Int -> Int) -> Int -> Int"       → ["(Int -> Int)", "Int", "Int"]
//
// Arrows nested inside (), [], or {} are not split points.
func SplitArrowChain(sig string) []string {
	sig = strings.TrimSpace(sig)
	if sig == "" {
		return nil
	}

	var parts []string
	for _, p := range splitAtTopLevelArrows(sig) {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// ReturnType returns the final segment of an arrow chain — the type
// produced once every parameter has been applied.
func ReturnType(sig string) string {
	segments := SplitArrowChain(sig)
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// BaseTypeName extracts the head constructor name from a type
// expression.
//
//	"Person"                → "Person"
//	"Maybe Person"           → "Maybe"
//	"List String"             → "List"
//	"(Person)"                  → "Person"
//	"{ name : String }"          → "" (record literal has no head constructor)
//	"( String, Int )"              → "" (tuple has no head constructor)
func BaseTypeName(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return ""
	}
	if strings.HasPrefix(t, "{") {
		return ""
	}
	if strings.HasPrefix(t, "(") {
		inner := stripOuterParens(t)
		if inner == t {
			return ""
		}
		if len(splitAtTopLevelArrows(inner)) > 1 {
			// a parenthesized function type, e.g. "(Int -> Int)", has no
			// single head constructor.
			return ""
		}
		if len(splitAtTopLevelCommas(inner)) > 1 {
			// a tuple, e.g. "( String, Int )", has no single head constructor.
			return ""
		}
		return BaseTypeName(inner)
	}

	tokens := splitTopLevelWhitespace(t)
	if len(tokens) == 0 {
		return ""
	}
	head := tokens[0]
	if dot := strings.LastIndex(head, "."); dot >= 0 {
		head = head[dot+1:]
	}
	return head
}

// UnwrapApplication splits a type application into its head constructor
// and applied argument texts: "Maybe Person" → ("Maybe", ["Person"]).
func UnwrapApplication(t string) (head string, args []string) {
	t = strings.TrimSpace(t)
	if strings.HasPrefix(t, "(") {
		if inner := stripOuterParens(t); inner != t {
			return UnwrapApplication(inner)
		}
	}
	tokens := splitTopLevelWhitespace(t)
	if len(tokens) == 0 {
		return "", nil
	}
	return BaseTypeName(tokens[0]), tokens[1:]
}

// IsRecordLiteral reports whether a type expression's text is a record
// type literal ("{ f1 : T1, f2 : T2 }"). This operates on type text — a
// type alias's body — not on expression-level record syntax.
func IsRecordLiteral(t string) bool {
	t = strings.TrimSpace(t)
	return strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}")
}

// RecordFieldNames extracts the field names declared in a record type
// literal's text, in source order. Used as the structural fallback's
// candidate field set (spec.md §4.D rule 6) when only the textual
// signature, not a parsed field-access chain, is available.
func RecordFieldNames(t string) []string {
	if !IsRecordLiteral(t) {
		return nil
	}
	inner := strings.TrimSpace(t)
	inner = strings.TrimPrefix(inner, "{")
	inner = strings.TrimSuffix(inner, "}")
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return nil
	}
	// "{ r | f1 = v1, f2 = v2 }" — drop the base-record part.
	if bar := topLevelIndex(inner, '|'); bar >= 0 {
		inner = inner[bar+1:]
	}

	var names []string
	for _, p := range splitAtTopLevelCommas(inner) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if colon := topLevelIndex(p, ':'); colon >= 0 {
			names = append(names, strings.TrimSpace(p[:colon]))
		} else if eq := topLevelIndex(p, '='); eq >= 0 {
			names = append(names, strings.TrimSpace(p[:eq]))
		} else {
			names = append(names, p)
		}
	}
	return names
}

// --- low-level text scanning, depth-aware over (), [], {} ---

func splitAtTopLevelArrows(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '-':
			if depth == 0 && i+1 < len(s) && s[i+1] == '>' {
				parts = append(parts, s[start:i])
				i++
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// splitTopLevelWhitespace splits on runs of whitespace not nested
// inside (), [], or {}, keeping each bracketed group as one token, so
// "Maybe (List Int)" → ["Maybe", "(List Int)"].
func splitTopLevelWhitespace(s string) []string {
	var tokens []string
	depth := 0
	start := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '(', '[', '{':
			if start == -1 {
				start = i
			}
			depth++
		case ')', ']', '}':
			depth--
		case ' ', '\t', '\n':
			if depth == 0 && start != -1 {
				tokens = append(tokens, s[start:i])
				start = -1
			}
		default:
			if start == -1 {
				start = i
			}
		}
	}
	if start != -1 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

func stripOuterParens(s string) string {
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return s
	}
	depth := 0
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return s
			}
		}
	}
	return strings.TrimSpace(s[1 : len(s)-1])
}

func topLevelIndex(s string, target byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		default:
			if depth == 0 && s[i] == target {
				return i
			}
		}
	}
	return -1
}
