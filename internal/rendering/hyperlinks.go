package rendering

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"mvdan.cc/xurls/v2"
)

var relaxedURLs = xurls.Relaxed()

// MakeHyperlink creates a terminal hyperlink using OSC 8 sequences.
// If hyperlinks aren't supported, returns just the display text.
func MakeHyperlink(displayText, targetURL string) string {
	if targetURL == "" || !IsHyperlinksSupported() {
		return displayText
	}
	return fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", targetURL, displayText)
}

// FileLink links displayText to a local file, typically a conversation log.
func FileLink(displayText, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return displayText
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return MakeHyperlink(displayText, u.String())
}

// AutoLinkText converts URLs in text to hyperlinks
func AutoLinkText(text string) string {
	if !IsHyperlinksSupported() {
		return text
	}
	return relaxedURLs.ReplaceAllStringFunc(text, func(match string) string {
		target := match
		if !strings.Contains(match, "://") && !strings.HasPrefix(match, "mailto:") {
			target = "https://" + match
		}
		return MakeHyperlink(match, target)
	})
}

