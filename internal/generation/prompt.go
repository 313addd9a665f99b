package generation

import (
	"strings"

	"github.com/kdduha/snap2html/backend/internal/llm"
)

type Prompts struct {
	System       string
	Initial      string
	Continuation string
}

const (
	systemPrompt = `You are a front-end engineer who rebuilds screenshots and photos as a single self-contained HTML document.
Use inline <style> only, no external assets, no scripts. Reply with HTML only, without explanations or markdown.`

	initialPrompt = `Recreate the attached image as one HTML document with embedded CSS.
Match layout, colors, typography and spacing as closely as you can.
If the document will not fit into this reply, stop at a clean boundary and end the reply with ` + ContinuationMarker + ` on its own line.
Do not write ` + ContinuationMarker + ` when the document is finished.`

	continuationPrompt = `Continue the HTML document for the attached image exactly where the previous output stops.
Do not repeat anything that was already written and do not restart the document.
If more content is still needed after this reply, end it with ` + ContinuationMarker + ` on its own line.`

	priorContentHeader = "Previously generated content:\n"
)

func DefaultPrompts() Prompts {
	return Prompts{
		System:       systemPrompt,
		Initial:      initialPrompt,
		Continuation: continuationPrompt,
	}
}

// buildParts assembles the content parts for one attempt: instruction, image
// and, for continuations, everything generated so far.
func (p Prompts) buildParts(req Request) []llm.Part {
	if !req.IsContinuation() {
		return []llm.Part{
			llm.TextPart(p.Initial),
			llm.ImagePart(req.SourceImage),
		}
	}

	var b strings.Builder
	b.Grow(len(priorContentHeader) + len(req.PriorContent))
	b.WriteString(priorContentHeader)
	b.WriteString(req.PriorContent)

	return []llm.Part{
		llm.TextPart(p.Continuation),
		llm.ImagePart(req.SourceImage),
		llm.TextPart(b.String()),
	}
}
