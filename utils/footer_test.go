package utils

import (
	"strings"
	"testing"
)

func TestUnsubscribeFooter(t *testing.T) {
	text, html := UnsubscribeFooter("https://app.acme.io", 42)

	if !strings.Contains(text, "https://app.acme.io/unsubscribe/42") {
		t.Errorf("text footer missing link: %q", text)
	}
	if !strings.HasPrefix(text, "\n\n--\n") {
		t.Errorf("text footer missing separator: %q", text)
	}
	if !strings.Contains(html, `href="https://app.acme.io/unsubscribe/42"`) {
		t.Errorf("html footer missing link: %q", html)
	}
}
