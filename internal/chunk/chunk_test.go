package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertWithinLimit(t *testing.T, chunks []string, maxLength int) {
	t.Helper()
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), maxLength, "chunk %d over limit", i)
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	assert.Equal(t, []string{"short message"}, Split("short message", TelegramMaxLength))
}

func TestSplit_EmptyString(t *testing.T) {
	assert.Equal(t, []string{""}, Split("", TelegramMaxLength))
}

func TestSplit_ExactLimitUnchanged(t *testing.T) {
	text := strings.Repeat("a", TelegramMaxLength)
	assert.Equal(t, []string{text}, Split(text, TelegramMaxLength))
}

func TestSplit_ParagraphBoundary(t *testing.T) {
	para1 := strings.Repeat("가", 3000)
	para2 := strings.Repeat("나", 3000)
	text := para1 + "\n\n" + para2

	result := Split(text, TelegramMaxLength)

	require.Len(t, result, 2)
	// The blank-line separator travels with the preceding paragraph.
	assert.Equal(t, para1+"\n\n", result[0])
	assert.Equal(t, para2, result[1])
}

func TestSplit_ShortParagraphsMerged(t *testing.T) {
	paras := make([]string, 5)
	for i := range paras {
		paras[i] = "a short paragraph."
	}
	text := strings.Join(paras, "\n\n")

	assert.Equal(t, []string{text}, Split(text, TelegramMaxLength))
}

func TestSplit_ThreeParagraphsPackedGreedily(t *testing.T) {
	para := strings.Repeat("가", 2000)
	text := para + "\n\n" + para + "\n\n" + para

	result := Split(text, TelegramMaxLength)

	// 2000 + 2 + 2000 fits in one chunk; the third paragraph does not.
	require.Len(t, result, 2)
	assertWithinLimit(t, result, TelegramMaxLength)
	assert.Equal(t, text, strings.Join(result, ""))
}

func TestSplit_SmallCodeBlockKeptIntact(t *testing.T) {
	code := "```python\nprint(\"hello\")\n```"
	text := "a code example:\n\n" + code + "\n\nrun it."

	result := Split(text, TelegramMaxLength)

	require.Len(t, result, 1)
	assert.Contains(t, result[0], code)
}

func TestSplit_CodeBlockNotBrokenByNeighbor(t *testing.T) {
	intro := strings.Repeat("가", 3800)
	code := "```python\n" + strings.Repeat("x = 1\n", 100) + "```"
	text := intro + "\n\n" + code

	result := Split(text, TelegramMaxLength)

	require.GreaterOrEqual(t, len(result), 2)
	assertWithinLimit(t, result, TelegramMaxLength)
	for _, c := range result {
		if strings.Contains(c, "```python") {
			// Fences open and close in pairs within every chunk.
			assert.Equal(t, 0, strings.Count(c, "```")%2)
		}
	}
}

func TestSplit_OversizedCodeBlockRewrapped(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("```python\n")
	for i := 0; i < 300; i++ {
		sb.WriteString("value = 'x' * 80  # padding to make each line long\n")
	}
	sb.WriteString("```")
	code := sb.String()
	require.Greater(t, utf8.RuneCountInString(code), TelegramMaxLength)

	result := Split(code, TelegramMaxLength)

	require.GreaterOrEqual(t, len(result), 2)
	assertWithinLimit(t, result, TelegramMaxLength)
	for _, c := range result {
		assert.True(t, strings.HasPrefix(c, "```python\n"), "piece must reopen the fence")
		assert.True(t, strings.HasSuffix(c, "```"), "piece must close the fence")
	}
}

func TestSplit_LanguageTagPreserved(t *testing.T) {
	code := "```go\n" + strings.Repeat("fmt.Println(1)\n", 50) + "```"

	result := Split(code, 200)

	require.GreaterOrEqual(t, len(result), 2)
	for _, c := range result {
		assert.True(t, strings.HasPrefix(c, "```go\n"))
	}
}

func TestSplit_HugeParagraphSplitAtLines(t *testing.T) {
	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, "line: "+strings.Repeat("가", 80))
	}
	text := strings.Join(lines, "\n")
	require.Greater(t, utf8.RuneCountInString(text), TelegramMaxLength)

	result := Split(text, TelegramMaxLength)

	require.GreaterOrEqual(t, len(result), 2)
	assertWithinLimit(t, result, TelegramMaxLength)
	assert.Equal(t, text, strings.Join(result, ""))
}

func TestSplit_NoNewlineSplitByChars(t *testing.T) {
	text := strings.Repeat("A", 10000)

	result := Split(text, TelegramMaxLength)

	require.GreaterOrEqual(t, len(result), 3)
	assertWithinLimit(t, result, TelegramMaxLength)
	assert.Equal(t, text, strings.Join(result, ""))
}

func TestSplit_MultiByteBound(t *testing.T) {
	// The limit counts characters, not bytes.
	result := Split(strings.Repeat("가나다라마바사", 1000), 100)
	assertWithinLimit(t, result, 100)
}

func TestSplit_CustomMaxLength(t *testing.T) {
	text := strings.Repeat("Hello World! ", 10)

	result := Split(text, 50)

	require.GreaterOrEqual(t, len(result), 2)
	assertWithinLimit(t, result, 50)
	assert.Equal(t, text, strings.Join(result, ""))
}

func TestSplit_MixedContentSmallLimit(t *testing.T) {
	text := "title\n\n```python\nprint('hi')\n```\n\nclosing words"

	result := Split(text, 30)

	require.GreaterOrEqual(t, len(result), 2)
	assertWithinLimit(t, result, 30)
}

func TestSplit_RoundTripProse(t *testing.T) {
	cases := []string{
		"single line",
		strings.Repeat("가", 3000) + "\n\n" + strings.Repeat("나", 3000),
		"a\n\nb\n\n\nc\n\n\n\nd",
		strings.Repeat("word word word\n", 500),
		"trailing separator\n\n",
		"\n\nleading separator",
	}
	for _, text := range cases {
		for _, limit := range []int{1, 7, 50, TelegramMaxLength} {
			result := Split(text, limit)
			assert.Equal(t, text, strings.Join(result, ""), "limit=%d", limit)
			assertWithinLimit(t, result, limit)
		}
	}
}

func TestSplit_TinyLimitCodeFenceOverflowIsFinite(t *testing.T) {
	// maxLength smaller than the fence overhead: the bound cannot hold, but
	// the split must terminate with the fence intact on every piece.
	code := "```go\nabcdef\n```"

	result := Split(code, 5)

	require.NotEmpty(t, result)
	for _, c := range result {
		assert.True(t, strings.HasPrefix(c, "```go\n"))
		assert.True(t, strings.HasSuffix(c, "```"))
	}
}

func TestSplit_UnclosedFenceTreatedAsProse(t *testing.T) {
	// An opening fence without a closing one never matches the code-block
	// pattern, so it splits like regular text.
	text := "```python\n" + strings.Repeat("x\n", 3000)

	result := Split(text, TelegramMaxLength)

	assertWithinLimit(t, result, TelegramMaxLength)
	assert.Equal(t, text, strings.Join(result, ""))
}
