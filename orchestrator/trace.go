package orchestrator

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/inscope-ai/ragcore/common/logger"
)

// tracer approximates token counts for trace records. Encoding setup is
// lazy; if the encoder cannot be built, chars/2 is used instead, which is a
// reasonable approximation for Korean text.
type tracer struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

func (t *tracer) countTokens(text string) int {
	if text == "" {
		return 0
	}
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			logger.Warnf("trace: tiktoken unavailable, approximating: %v", err)
			return
		}
		t.enc = enc
	})
	if t.enc != nil {
		return len(t.enc.Encode(text, nil, nil))
	}
	return (len([]rune(text)) + 1) / 2
}
