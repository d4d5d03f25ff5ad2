package artifact

import (
	"fmt"
	"strings"
)

// uriReserved holds the characters EncodeURI leaves untouched besides
// ASCII letters and digits.
const uriReserved = ";,/?:@&=+$-_.!~*'()#"

// EncodeURI percent-encodes s the way browsers' encodeURI does: a full URL
// keeps its structure, everything else is escaped as UTF-8 bytes.
func EncodeURI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlnum(c) || strings.IndexByte(uriReserved, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isAlnum(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}
