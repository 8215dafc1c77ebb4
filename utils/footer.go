package utils

import "fmt"

// UnsubscribeFooter builds the mandatory opt-out footer appended to every
// follow-up draft, in text and HTML variants.
func UnsubscribeFooter(baseURL string, leadID uint) (text, html string) {
	url := fmt.Sprintf("%s/unsubscribe/%d", baseURL, leadID)

	text = fmt.Sprintf("\n\n--\nIf you'd rather not hear from me again, unsubscribe here: %s", url)
	html = fmt.Sprintf(
		`<p style="font-size:12px;color:#7f8c8d;border-top:1px solid #eee;margin-top:20px;padding-top:10px">`+
			`If you'd rather not hear from me again, <a href="%s">unsubscribe here</a>.</p>`, url)
	return text, html
}
