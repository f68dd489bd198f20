package normalize

import (
	"encoding/base64"
	"strings"
	"unicode"
	"unicode/utf8"
)

// minBase64TokenLen is the shortest token worth a decode attempt.
// Shorter strings over the base64 alphabet are overwhelmingly ordinary
// words ("data", "test"), and decoding them would flood evaluation
// with garbage sub-actions.
const minBase64TokenLen = 12

// base64Candidate reports whether a token looks like base64: restricted
// alphabet, plausible length, a multiple of 4 with valid padding.
func base64Candidate(token string) bool {
	if len(token) < minBase64TokenLen || len(token)%4 != 0 {
		return false
	}

	padding := 0
	for i, r := range token {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '/':
			if padding > 0 {
				return false // Alphabet character after padding
			}
		case r == '=':
			padding++
			if padding > 2 || i < len(token)-2 {
				return false
			}
		default:
			return false
		}
	}

	return true
}

// tryDecodeBase64 attempts to decode a candidate token. It returns the
// decoded text and true only when the result is plausible command
// text: valid UTF-8 consisting of printable characters and whitespace.
// Binary output means the token was not an encoded command.
func tryDecodeBase64(token string) (string, bool) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", false
	}

	text := string(decoded)
	if !utf8.ValidString(text) {
		return "", false
	}
	for _, r := range text {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return "", false
		}
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

// scanBase64 walks the whitespace-separated tokens of a segment and
// returns every plausible decode, plus whether any decode attempt was
// made at all. The attempted flag matters even when every decode
// fails: an ambiguous token widens evaluation instead of being waved
// through (fail closed).
func scanBase64(text string) (decoded []string, attempted bool) {
	for _, token := range strings.Fields(text) {
		token = strings.Trim(token, `'"`)
		if !base64Candidate(token) {
			continue
		}
		attempted = true
		if out, ok := tryDecodeBase64(token); ok {
			decoded = append(decoded, out)
		}
	}
	return decoded, attempted
}
