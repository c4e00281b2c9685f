package translate

import (
	"context"
	"time"
)

// Mock returns canned translations for testing.
type Mock struct {
	Delay  time.Duration
	Result string // returned verbatim; empty means "<text>:<targetLang>"
	Err    error
}

func (m *Mock) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.Result != "" {
		return m.Result, nil
	}
	return text + ":" + targetLang, nil
}
