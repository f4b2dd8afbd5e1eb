package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Cache key namespaces.
const (
	KindEmbeddings = "embeddings"
	KindSearch     = "search"
	KindLLM        = "llm_response"
	KindSession    = "session"
)

// Key builds a namespaced content-addressed key: 16 hex chars of the md5 of
// kind + material + sorted extra params. Callers pass already-normalized
// material so equivalent questions collide on purpose.
func Key(kind, material string, extra map[string]string) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteByte(':')
	b.WriteString(material)
	if len(extra) > 0 {
		keys := make([]string, 0, len(extra))
		for k := range extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, ":%s=%s", k, extra[k])
		}
	}
	sum := md5.Sum([]byte(b.String()))
	return kind + ":" + hex.EncodeToString(sum[:])[:16]
}
