package codec

// dictionaryTokens maps frequent leaf values to single-byte reserved
// tokens. Fixed and versioned with the engine (changing it would change
// every existing encoded record), never catalog-configurable.
var dictionaryTokens = buildDictionary([]string{
	"active", "inactive", "true", "false", "yes", "no", "pending",
	"completed", "failed", "cancelled", "GET", "POST", "PUT", "DELETE",
	"PATCH", "admin", "user", "guest", "public", "private", "draft",
	"published", "archived", "enabled", "disabled", "open", "closed",
	"low", "medium", "high", "critical", "none", "null", "unknown",
})

// reservedTokenBase starts a token alphabet that is disjoint from the short-key alphabet
// (0-9A-Za-z) and from the array codec's '|'/'\' escapes: it uses the
// Unicode Private Use Area starting at U+E000, so a dictionary token can
// never collide with user data or another codec's output.
const reservedTokenBase = 0xE000

func buildDictionary(values []string) map[string]rune {
	m := make(map[string]rune, len(values))
	for i, v := range values {
		m[v] = rune(reservedTokenBase + i)
	}
	return m
}

func reverseDictionary() map[rune]string {
	m := make(map[rune]string, len(dictionaryTokens))
	for k, v := range dictionaryTokens {
		m[v] = k
	}
	return m
}

var dictionaryTokensReverse = reverseDictionary()

// DictionaryCodec substitutes a frequent leaf value with a single-rune
// token before delegating to Inner (normally StringCodec) for anything not
// in the table.
type DictionaryCodec struct {
	Inner Codec
}

func (d DictionaryCodec) Encode(descriptor string, value any) (string, error) {
	if s, ok := value.(string); ok {
		if tok, found := dictionaryTokens[s]; found {
			return string(tok), nil
		}
	}
	return d.Inner.Encode(descriptor, value)
}

func (d DictionaryCodec) Decode(descriptor string, encoded string) (any, error) {
	runes := []rune(encoded)
	if len(runes) == 1 {
		if s, found := dictionaryTokensReverse[runes[0]]; found {
			return s, nil
		}
	}
	return d.Inner.Decode(descriptor, encoded)
}
