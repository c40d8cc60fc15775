package term

// history keeps the commands typed this session for up/down recall.
// cursor == len(entries) means the user is editing a fresh line; the
// fresh line is parked in draft while stepping back.
type history struct {
	entries []string
	cursor  int
	draft   string
}

func newHistory() *history {
	return &history{}
}

// Add records a line and resets the cursor. Blank lines and immediate
// repeats are not recorded, matching readline.
func (h *history) Add(line string) {
	if line != "" && (len(h.entries) == 0 || h.entries[len(h.entries)-1] != line) {
		h.entries = append(h.entries, line)
	}
	h.cursor = len(h.entries)
	h.draft = ""
}

// Prev steps back one entry, stashing the in-progress line on the first
// step. The second return is false when there is nothing earlier.
func (h *history) Prev(current string) (string, bool) {
	if h.cursor == 0 {
		return "", false
	}
	if h.cursor == len(h.entries) {
		h.draft = current
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Next steps forward again, handing the stashed draft back at the end.
func (h *history) Next() (string, bool) {
	if h.cursor >= len(h.entries) {
		return "", false
	}
	h.cursor++
	if h.cursor == len(h.entries) {
		return h.draft, true
	}
	return h.entries[h.cursor], true
}
