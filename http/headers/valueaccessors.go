package headers

import "strings"

// ValueOf returns a value until the first semicolon is met. Even if the text
// after the semicolon isn't a parameter, it will anyway be counted as one.
func ValueOf(str string) string {
	if index := strings.IndexByte(str, ';'); index != -1 {
		return strings.TrimRight(str[:index], " ")
	}

	return strings.TrimRight(str, " ")
}

// ParamOf looks for a parameter in a value and, if found, returns the
// parameter value with surrounding double quotes stripped. The parameter
// name is matched case-insensitively. In case the parameter isn't found,
// the fallback is returned.
func ParamOf(str, key, or string) string {
	offset := 0

	for {
		index := indexFold(str[offset:], key)
		if index == -1 {
			return or
		}

		nameEnd := offset + index + len(key)
		// the match must be a whole parameter name followed by =, not a
		// substring of a value or of a longer name
		boundaryBefore := offset+index == 0 || isParamBoundary(str[offset+index-1])
		if !boundaryBefore || nameEnd >= len(str) || str[nameEnd] != '=' {
			offset += index + 1
			continue
		}

		valOffset := nameEnd + 1

		return unquote(str[valOffset : valOffset+getParamEnd(str[valOffset:])])
	}
}

func isParamBoundary(char byte) bool {
	switch char {
	case ';', ' ', '\t':
		return true
	}

	return false
}

func getParamEnd(str string) int {
	quoted := false

	for i := 0; i < len(str); i++ {
		switch str[i] {
		case '"':
			quoted = !quoted
		case ',', ';':
			if !quoted {
				return i
			}
		}
	}

	return len(str)
}

func unquote(str string) string {
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		return str[1 : len(str)-1]
	}

	return str
}

// indexFold is strings.Index with ASCII case folding applied to both sides.
func indexFold(str, substr string) int {
	if len(substr) == 0 {
		return 0
	}

	for i := 0; i+len(substr) <= len(str); i++ {
		j := 0
		for ; j < len(substr); j++ {
			if !foldEq(str[i+j], substr[j]) {
				break
			}
		}

		if j == len(substr) {
			return i
		}
	}

	return -1
}

func foldEq(a, b byte) bool {
	if 'A' <= a && a <= 'Z' {
		a += 'a' - 'A'
	}
	if 'A' <= b && b <= 'Z' {
		b += 'a' - 'A'
	}

	return a == b
}
