// Package chunk splits long messages into transport-sized pieces.
//
// Chat platforms cap message length (Telegram at 4096 characters), so any
// long reply has to be sent as several messages. Splitting naively in the
// middle of a fenced code block renders as garbage, so the splitter works on
// structural segments: fenced code blocks are atomic, prose is divided at
// blank-line (paragraph) boundaries, and only when a single segment is itself
// too large does it fall back to line and finally raw character splits.
package chunk

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// TelegramMaxLength is Telegram's per-message character limit.
const TelegramMaxLength = 4096

// SlackMaxLength is the practical cap for Slack chat.postMessage text.
const SlackMaxLength = 4000

// Fenced code block: an opening ``` line (with optional language tag)
// through the matching closing ```.
var codeBlockRe = regexp.MustCompile("(?s)```[^\n]*\n.*?```")

// A run of blank lines separating paragraphs.
var paragraphSepRe = regexp.MustCompile(`\n\n+`)

// Split decomposes text into ordered chunks of at most maxLength characters
// (runes, matching how platforms count the limit for non-BMP-free text).
//
// Guarantees:
//   - text within the limit comes back unchanged as a single chunk, and the
//     empty string yields [""]
//   - prose chunks concatenate back to the original text exactly
//   - a code block that fits in one chunk is never divided; one that does not
//     is re-wrapped so every piece opens with the original fence line and
//     closes with ```, at the cost of repeating the fence overhead
//   - every chunk is within maxLength, except when maxLength is smaller than
//     the fence overhead itself, where forward progress wins over the bound
func Split(text string, maxLength int) []string {
	if utf8.RuneCountInString(text) <= maxLength {
		return []string{text}
	}

	var chunks []string
	current := ""

	for _, seg := range segments(text) {
		candidate := current + seg.text
		if utf8.RuneCountInString(candidate) <= maxLength {
			current = candidate
			continue
		}

		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}

		if utf8.RuneCountInString(seg.text) > maxLength {
			sub := splitSegmentByLines(seg.text, seg.code, maxLength)
			// The last piece may still merge with following segments.
			chunks = append(chunks, sub[:len(sub)-1]...)
			current = sub[len(sub)-1]
		} else {
			current = seg.text
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// segment is one atomic unit of the decomposition: either a whole fenced
// code block or a piece of prose.
type segment struct {
	text string
	code bool
}

// segments decomposes text into atomic units: each fenced code block is one
// segment; the text around them is split at blank-line runs, with each run
// kept as its own segment so that greedy packing reattaches it to the
// preceding paragraph and concatenation stays lossless. A lone opening fence
// with no close never matches the code pattern and stays prose.
func segments(text string) []segment {
	var segs []segment
	last := 0
	for _, loc := range codeBlockRe.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			segs = append(segs, paragraphs(text[last:loc[0]])...)
		}
		segs = append(segs, segment{text: text[loc[0]:loc[1]], code: true})
		last = loc[1]
	}
	if last < len(text) {
		segs = append(segs, paragraphs(text[last:])...)
	}
	return segs
}

func paragraphs(text string) []segment {
	var segs []segment
	last := 0
	for _, loc := range paragraphSepRe.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			segs = append(segs, segment{text: text[last:loc[0]]})
		}
		segs = append(segs, segment{text: text[loc[0]:loc[1]]})
		last = loc[1]
	}
	if last < len(text) {
		segs = append(segs, segment{text: text[last:]})
	}
	return segs
}

// splitSegmentByLines divides one oversized segment. Prose splits at line
// breaks (each line keeps its trailing newline, so pieces concatenate back
// losslessly), then by raw character position for a single line that is still
// too long. A code block keeps its fence markers on every emitted piece so
// each one renders as valid fenced code on its own.
func splitSegmentByLines(text string, isCode bool, maxLength int) []string {
	fence := ""
	inner := text

	if isCode {
		// A code segment always has an opening fence line and a closing ```.
		nl := strings.IndexByte(text, '\n')
		fence = text[:nl] // e.g. "```python"
		inner = text[nl+1 : len(text)-3]
	}

	wrap := func(body string) string {
		if isCode {
			return fence + "\n" + body + "```"
		}
		return body
	}

	overhead := 0
	if isCode {
		overhead = utf8.RuneCountInString(fence) + 1 + 3 // fence + newline + closing ```
	}
	contentMax := maxLength - overhead
	if contentMax < 1 {
		// maxLength cannot even hold the fence markers. Clamp to one rune per
		// piece so splitting terminates; such pieces exceed maxLength.
		contentMax = 1
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, wrap(cur.String()))
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range linesWithBreaks(inner) {
		lineLen := utf8.RuneCountInString(line)

		if lineLen > contentMax {
			flush()
			r := []rune(line)
			for pos := 0; pos < len(r); pos += contentMax {
				end := pos + contentMax
				if end > len(r) {
					end = len(r)
				}
				chunks = append(chunks, wrap(string(r[pos:end])))
			}
			continue
		}

		if curLen+lineLen > contentMax {
			flush()
		}
		cur.WriteString(line)
		curLen += lineLen
	}
	flush()

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

// linesWithBreaks splits on newlines while keeping each newline attached to
// the line it terminates, the same way paragraph separators stay attached to
// their paragraph.
func linesWithBreaks(s string) []string {
	parts := strings.SplitAfter(s, "\n")
	if n := len(parts); n > 1 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}
