/**
 * Copyright 2024 kmeaw
 *
 * Licensed under the GNU Affero General Public License (AGPL).
 *
 * This program is free software: you can redistribute it and/or modify it
 * under the terms of the GNU Affero General Public License as published by the
 * Free Software Foundation, version 3 of the License.
 *
 * This program is distributed in the hope that it will be useful, but WITHOUT
 * ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
 * FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
 * for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package bitfix

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Pattern is a fixed-length byte signature. A zero mask byte marks a
// wildcard position.
type Pattern struct {
	text  string
	value []byte
	mask  []byte
}

// ParsePattern compiles text like "48 8B ?? ?? 90".
func ParsePattern(text string) (*Pattern, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, &PatternError{Pattern: text}
	}

	p := &Pattern{
		text:  text,
		value: make([]byte, len(tokens)),
		mask:  make([]byte, len(tokens)),
	}
	for i, token := range tokens {
		if token == "??" || token == "?" {
			continue
		}

		if len(token) != 2 {
			return nil, &PatternError{Pattern: text, Token: token}
		}
		v, err := strconv.ParseUint(token, 16, 8)
		if err != nil {
			return nil, &PatternError{Pattern: text, Token: token}
		}

		p.value[i] = byte(v)
		p.mask[i] = 0xFF
	}

	return p, nil
}

func (p *Pattern) Len() int {
	return len(p.value)
}

// Text returns the pattern as it was written.
func (p *Pattern) Text() string {
	return p.text
}

func (p *Pattern) String() string {
	var sb strings.Builder
	for i := range p.value {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if p.mask[i] == 0 {
			sb.WriteString("??")
		} else {
			fmt.Fprintf(&sb, "%02X", p.value[i])
		}
	}
	return sb.String()
}

// Match reports whether data starts with the pattern.
func (p *Pattern) Match(data []byte) bool {
	if len(data) < len(p.value) {
		return false
	}
	for j := range p.value {
		if data[j]&p.mask[j] != p.value[j] {
			return false
		}
	}
	return true
}

// anchor returns the longest run of literal bytes and its offset inside the
// pattern, used to skip ahead with bytes.Index.
func (p *Pattern) anchor() (int, []byte) {
	best, bestLen := 0, 0
	for i := 0; i < len(p.mask); {
		if p.mask[i] == 0 {
			i++
			continue
		}
		j := i
		for j < len(p.mask) && p.mask[j] != 0 {
			j++
		}
		if j-i > bestLen {
			best, bestLen = i, j-i
		}
		i = j
	}
	return best, p.value[best : best+bestLen]
}

func (p *Pattern) scan(base uintptr, data []byte) []uintptr {
	var matches []uintptr

	last := len(data) - len(p.value)
	offset, literal := p.anchor()
	if len(literal) == 0 {
		for i := 0; i <= last; i++ {
			matches = append(matches, base+uintptr(i))
		}
		return matches
	}

	for i := 0; i <= last; {
		idx := bytes.Index(data[i+offset:last+offset+len(literal)], literal)
		if idx == -1 {
			break
		}
		i += idx
		if p.Match(data[i:]) {
			matches = append(matches, base+uintptr(i))
		}
		i++
	}

	return matches
}

// ScanPatterns finds every occurrence of every pattern in data, which is
// mapped at base. The result holds one ascending address list per pattern,
// in the order the patterns were given. Overlapping occurrences are all
// reported.
func ScanPatterns(patterns []*Pattern, base uintptr, data []byte) [][]uintptr {
	results := make([][]uintptr, len(patterns))
	for i, p := range patterns {
		results[i] = p.scan(base, data)
	}
	return results
}

// vim: ai:ts=8:sw=8:noet:syntax=go
