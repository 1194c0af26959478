package sift

import "strings"

// ParsedPath is a filter key split into a column name and an ordered
// JSON path.
type ParsedPath struct {
	Column string
	Path   []string
}

// ParsePath splits a field key on '.' separators and '[...]' bracket
// groups. The portion before the first separator is the column name;
// every following non-empty segment becomes a path entry in order.
// Consecutive, leading and trailing separators collapse, so no empty
// segments are produced. Dots inside a bracket group do not split.
//
// Segments are deliberately not validated or sanitized: they are opaque
// tokens that downstream adapters bind as query parameters. ParsePath
// never fails; empty input yields the zero value.
func ParsePath(key string) ParsedPath {
	var segments []string
	var cur strings.Builder
	depth := 0

	flush := func() {
		if cur.Len() > 0 {
			segments = append(segments, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(key); i++ {
		c := key[i]
		switch c {
		case '.':
			if depth == 0 {
				flush()
			} else {
				cur.WriteByte(c)
			}
		case '[':
			if depth == 0 {
				flush()
			} else {
				cur.WriteByte(c)
			}
			depth++
		case ']':
			if depth == 1 {
				flush()
			} else {
				cur.WriteByte(c)
			}
			if depth > 0 {
				depth--
			}
		default:
			cur.WriteByte(c)
		}
	}
	flush()

	if len(segments) == 0 {
		return ParsedPath{}
	}
	p := ParsedPath{Column: segments[0]}
	if len(segments) > 1 {
		p.Path = segments[1:]
	}
	return p
}

// hasPathSeparator reports whether a filter key needs ParsePath at all.
func hasPathSeparator(key string) bool {
	return strings.ContainsAny(key, ".[")
}
