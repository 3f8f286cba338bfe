package codec

import "strings"

// ParseDescriptor splits a type descriptor like "money:USD" or
// "string|maxlength:40" into its type tag and the remainder ("USD" or
// "maxlength:40"). Descriptors with no ':' or '|' return an empty param.
func ParseDescriptor(descriptor string) (tag string, param string) {
	if i := strings.IndexAny(descriptor, ":|"); i >= 0 {
		return descriptor[:i], descriptor[i+1:]
	}
	return descriptor, ""
}

// ParseMaxLength extracts the N from a "maxlength:N" rule fragment. Returns
// -1 (no limit) if absent or malformed.
func ParseMaxLength(param string) int {
	const prefix = "maxlength:"
	idx := strings.Index(param, prefix)
	if idx < 0 {
		return -1
	}
	n, digits := 0, 0
	rest := param[idx+len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			break
		}
		n = n*10 + int(rest[i]-'0')
		digits++
	}
	if digits == 0 {
		return -1
	}
	return n
}
