package eventbrite

import (
	"regexp"
	"strings"
)

// DefaultDescriptionHTML is the listing body used when the calendar event has no description
const DefaultDescriptionHTML = `<p>Join us for a sound bath to reset and relax your mind, body, and spirit — reconnecting with your mana and the healing rhythms of the moana.</p>
<h2>Before You Arrive:</h2>
<p>Consider moving your body beforehand; take a gentle walk, stretch, or run before the session to release stagnant energy.</p>
<h2>Bring:</h2>
<ul>
  <li>Towel, mat, or blanket for the ‘āina</li>
  <li>Eye mask if you wish to shut out visual stimulation and the sun</li>
  <li>Swimsuit, sunscreen, and water bottle if you feel called to connect with the moana after our gathering</li>
</ul>
<p>Let the makani (breeze) and sounds of the moana guide your naʻau (inner heart) into deep rest.</p>
<p>E komo mai — all are welcome!</p>`

var (
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)

	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#039;",
	)
)

// FormatDescriptionHTML turns a plain-text calendar description into listing HTML.
// Blank-line separated paragraphs become <p> blocks and single newlines become <br />.
// A blank description yields fallback.
func FormatDescriptionHTML(text, fallback string) string {
	if strings.TrimSpace(text) == "" {
		return fallback
	}

	escaped := htmlEscaper.Replace(text)
	paragraphs := paragraphBreak.Split(escaped, -1)

	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(p, "\n", "<br />"))
		b.WriteString("</p>")
	}
	return b.String()
}
