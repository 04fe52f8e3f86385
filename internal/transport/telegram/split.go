package telegram

import "strings"

// textLimit stays below Telegram's 4096 character cap to leave room for
// entities that expand during parsing.
const textLimit = 4000

// splitText cuts s into chunks of at most limit runes. Cuts prefer a newline
// in the last two thirds of the window; in HTML mode a cut never lands inside
// a tag.
func splitText(s string, limit int, parseMode string) []string {
	if limit <= 0 {
		limit = textLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}
	html := strings.EqualFold(parseMode, "HTML")

	var out []string
	for start := 0; start < len(rs); {
		end := min(start+limit, len(rs))
		if end < len(rs) {
			end = newlineCut(rs, start, end, limit)
			if html {
				end = tagSafeCut(rs, start, end)
			}
		}

		if chunk := strings.TrimRight(string(rs[start:end]), "\n"); chunk != "" {
			out = append(out, chunk)
		}
		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

func newlineCut(rs []rune, start, end, limit int) int {
	for i := end - 1; i-start >= limit/3; i-- {
		if rs[i] == '\n' {
			return i + 1
		}
	}
	return end
}

// tagSafeCut moves end back to the '<' of a tag left open in rs[start:end].
func tagSafeCut(rs []rune, start, end int) int {
	open, closed := -1, -1
	for i := start; i < end; i++ {
		switch rs[i] {
		case '<':
			open = i
		case '>':
			closed = i
		}
	}
	if open > closed && open > start+1 {
		return open
	}
	return end
}
