package speech

import (
	"encoding/xml"
	"strings"

	"junkobot/core"
)

// buildSSML renders the voice-markup document for one synthesis request. The
// voice, language and delivery attributes come from the profile; only the
// spoken text is caller input, and it is XML-escaped.
func buildSSML(req core.SynthesisRequest) string {
	var b strings.Builder

	b.WriteString(`<speak version="1.0"`)
	if req.Profile.Style != "" {
		b.WriteString(` xmlns:mstts="https://www.w3.org/2001/mstts"`)
	}
	b.WriteString(` xml:lang="`)
	b.WriteString(req.Profile.Language)
	b.WriteString(`"><voice xml:lang="`)
	b.WriteString(req.Profile.Language)
	b.WriteString(`" name="`)
	b.WriteString(req.Profile.Voice)
	b.WriteString(`">`)

	if req.Profile.Style != "" {
		b.WriteString(`<mstts:express-as style="`)
		b.WriteString(req.Profile.Style)
		b.WriteString(`">`)
	}
	prosody := req.Profile.Rate != "" || req.Profile.Pitch != ""
	if prosody {
		b.WriteString(`<prosody`)
		if req.Profile.Rate != "" {
			b.WriteString(` rate="` + req.Profile.Rate + `"`)
		}
		if req.Profile.Pitch != "" {
			b.WriteString(` pitch="` + req.Profile.Pitch + `"`)
		}
		b.WriteString(`>`)
	}

	b.WriteString(escapeText(req.Text))

	if prosody {
		b.WriteString(`</prosody>`)
	}
	if req.Profile.Style != "" {
		b.WriteString(`</mstts:express-as>`)
	}
	b.WriteString(`</voice></speak>`)

	return b.String()
}

func escapeText(text string) string {
	var b strings.Builder
	// xml.EscapeText only fails on writer errors; strings.Builder never errors.
	_ = xml.EscapeText(&b, []byte(text))
	return b.String()
}
