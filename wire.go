// Wire Codec
//
// Copyright (c) 2021, 2022  Philip Kaludercic
//
// This file is part of go-kgp.
//
// go-kgp is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-kgp is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-kgp. If not, see
// <http://www.gnu.org/licenses/>

package tactoe

import "strings"

// MaxLineLen is the largest inbound line the codec accepts; anything
// longer is rejected and counts as one invalid input.
const MaxLineLen = 512

// Encode formats TAG and ARGS into a single "##TAG|arg|...\n" line.
// It is the only place in the server that produces outbound wire
// text, so every tag used anywhere in the codebase funnels through
// here.
func Encode(tag string, args ...string) string {
	var b strings.Builder
	b.Grow(len(tag) + 16*len(args))
	b.WriteString("##")
	b.WriteString(tag)
	for _, a := range args {
		b.WriteByte('|')
		b.WriteString(a)
	}
	b.WriteByte('\n')
	return b.String()
}

// Decode parses a single inbound LINE (already stripped of its
// trailing terminator by the caller's scanner) into a tag and its
// pipe-separated arguments. It returns ok=false if the line does not
// start with the "##" prefix.
//
// A trailing empty argument after a final '|' is preserved, since
// several commands carry a literal pipe with no value (e.g.
// "##EXIT|").
func Decode(line string) (tag string, args []string, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "##") {
		return "", nil, false
	}
	body := line[2:]

	if i := strings.IndexByte(body, '|'); i == -1 {
		return body, nil, true
	} else {
		return body[:i], strings.Split(body[i+1:], "|"), true
	}
}
