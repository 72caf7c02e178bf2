package translation

import (
	"context"
	"strings"

	"subvoice/internal/language"
	"subvoice/internal/services/llm"
)

// Translator converts text into targetLang, a normalized BCP 47 tag.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, text, targetLang string) (string, error)

// Translate calls f.
func (f TranslatorFunc) Translate(ctx context.Context, text, targetLang string) (string, error) {
	return f(ctx, text, targetLang)
}

// Identity copies text through unchanged.
type Identity struct{}

// Translate implements Translator.
func (Identity) Translate(_ context.Context, text, _ string) (string, error) {
	return text, nil
}

// LLM translates through a chat-completion model.
type LLM struct {
	Client *llm.Client
}

// NewLLM wraps client.
func NewLLM(client *llm.Client) *LLM {
	return &LLM{Client: client}
}

// Translate implements Translator. The model is addressed with the English
// name of targetLang.
func (l *LLM) Translate(ctx context.Context, text, targetLang string) (string, error) {
	result, err := l.Client.Translate(ctx, text, language.DisplayName(targetLang))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}
