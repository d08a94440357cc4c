// Package format converts the AI layer's Markdown replies into plain text
// plus Telegram message entities.
package format

import (
	"regexp"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ParseResult holds plain text and the entities describing its styling.
type ParseResult struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

// UTF16Len returns the UTF-16 code unit length of s. Telegram entity
// offsets and lengths are measured in UTF-16 units, not runes or bytes.
func UTF16Len(s string) int {
	length := 0
	for _, b := range []byte(s) {
		if (b & 0xc0) != 0x80 {
			if b >= 0xf0 {
				length += 2 // surrogate pair
			} else {
				length++
			}
		}
	}
	return length
}

var (
	headerRe = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+?)$`)
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	codeRe   = regexp.MustCompile("`([^`]+?)`")
)

// ParseMarkdown strips Markdown markers from text and records the spans they
// covered as Telegram entities. Headers are rendered as bold lines; **bold**,
// __bold__ and `code` are supported.
//
// Matches are stripped strictly left to right across both patterns, so every
// recorded offset is measured against the final text: markers before a span
// are already gone when its offset is taken, and later strips only touch
// text to its right.
func ParseMarkdown(text string) ParseResult {
	// Headers become bold lines first, then the bold pass picks them up.
	result := headerRe.ReplaceAllString(text, "**$2**")

	var entities []tgbotapi.MessageEntity
	for {
		loc, entityType := boldRe.FindStringSubmatchIndex(result), "bold"
		if codeLoc := codeRe.FindStringSubmatchIndex(result); loc == nil || (codeLoc != nil && codeLoc[0] < loc[0]) {
			loc, entityType = codeLoc, "code"
		}
		if loc == nil {
			return ParseResult{Text: result, Entities: entities}
		}

		// The regexp may have several capture groups for marker variants;
		// the first non-empty one is the inner span.
		inner := ""
		for g := 1; g*2 < len(loc); g++ {
			if loc[g*2] != -1 {
				inner = result[loc[g*2]:loc[g*2+1]]
				break
			}
		}

		entities = append(entities, tgbotapi.MessageEntity{
			Type:   entityType,
			Offset: UTF16Len(result[:loc[0]]),
			Length: UTF16Len(inner),
		})
		result = result[:loc[0]] + inner + result[loc[1]:]
	}
}
