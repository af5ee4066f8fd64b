// Package mock provides a translation provider that works offline. Known
// phrases come from a small phrasebook; everything else is echoed with a
// language marker.
package mock

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"voice-translate-service/internal/service/translate"
)

var targetPattern = regexp.MustCompile(` to ([A-Za-z]+)\. `)

var phrasebook = map[string]map[string]string{
	"hello": {
		"French":      "Bonjour",
		"Spanish":     "Hola",
		"Yoruba":      "Bawo",
		"Kinyarwanda": "Muraho",
		"English":     "Hello",
	},
	"thank you": {
		"French":      "Merci",
		"Spanish":     "Gracias",
		"Yoruba":      "E se",
		"Kinyarwanda": "Murakoze",
		"English":     "Thank you",
	},
}

// Adapter implements translate.Provider without network access.
type Adapter struct {
	// Err, when set, is returned instead of a translation.
	Err error

	mu    sync.Mutex
	calls []translate.Completion
}

// New creates a mock translation provider.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string { return "mock" }

// Complete translates from the phrasebook, reading the target language from
// the system instruction.
func (a *Adapter) Complete(ctx context.Context, c translate.Completion) (string, error) {
	a.mu.Lock()
	a.calls = append(a.calls, c)
	err := a.Err
	a.mu.Unlock()

	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := "unknown"
	if m := targetPattern.FindStringSubmatch(c.System); m != nil {
		target = m[1]
	}
	key := strings.ToLower(strings.Trim(strings.TrimSpace(c.Text), ".!?"))
	if byLang, ok := phrasebook[key]; ok {
		if out, ok := byLang[target]; ok {
			return out, nil
		}
	}
	return fmt.Sprintf("[%s] %s", target, c.Text), nil
}

// Calls returns a copy of every completion received.
func (a *Adapter) Calls() []translate.Completion {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]translate.Completion(nil), a.calls...)
}
