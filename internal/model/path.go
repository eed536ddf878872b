// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"fmt"
	"strconv"
	"strings"
)

// PathSeparator is the reserved separator used when a field path is
// stringified for the exchange document. Field keys are validated against it
// on definition so a key can never inject extra path segments.
const PathSeparator = "."

// Synthetic paths for the two units every exchange document starts with.
const (
	PathTitle = "post-title"
	PathBody  = "post-content"
)

// PathStep is one step in a field path: a field key, optionally qualified by
// a 1-based repeater row index. Row 0 means the step is not inside a row.
type PathStep struct {
	Key string
	Row int
}

// Path addresses exactly one leaf field instance on an item, across all
// repeater row repetitions.
type Path []PathStep

// Child returns a new path extended by one step.
func (p Path) Child(key string, row int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, PathStep{Key: key, Row: row})
}

// Leaf returns the key of the last step, or "" for an empty path.
func (p Path) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1].Key
}

// IsNested reports whether the path addresses a subfield, i.e. a field that
// lives inside a repeater row or group rather than at the top level.
func (p Path) IsNested() bool {
	return len(p) > 1
}

// String serializes the path with the reserved separator, writing row
// indexes as their own segments: "gallery.2.caption".
func (p Path) String() string {
	var sb strings.Builder
	for i, step := range p {
		if i > 0 {
			sb.WriteString(PathSeparator)
		}
		if step.Row > 0 {
			sb.WriteString(strconv.Itoa(step.Row))
			sb.WriteString(PathSeparator)
		}
		sb.WriteString(step.Key)
	}
	return sb.String()
}

// ParsePath parses a serialized path back into typed steps. A numeric
// segment qualifies the following key segment with its row index.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("empty field path")
	}
	segments := strings.Split(s, PathSeparator)
	var path Path
	row := 0
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("malformed field path %q", s)
		}
		if n, err := strconv.Atoi(seg); err == nil {
			if row != 0 {
				return nil, fmt.Errorf("malformed field path %q: consecutive row indexes", s)
			}
			row = n
			continue
		}
		path = append(path, PathStep{Key: seg, Row: row})
		row = 0
	}
	if row != 0 {
		return nil, fmt.Errorf("malformed field path %q: trailing row index", s)
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("malformed field path %q: no field key", s)
	}
	return path, nil
}

// ValidFieldKey reports whether a key is safe to use in a path: non-empty,
// free of the reserved separator, and not purely numeric.
func ValidFieldKey(key string) bool {
	if key == "" || strings.Contains(key, PathSeparator) {
		return false
	}
	if _, err := strconv.Atoi(key); err == nil {
		return false
	}
	return true
}
