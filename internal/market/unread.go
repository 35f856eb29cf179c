package market

// UnreadEntry is one conversation (or notification source) as reported by
// an authoritative fetch: its id plus the server's unread flag.
type UnreadEntry struct {
	ID     uint `json:"id"`
	Unread bool `json:"unread"`
}

// UnreadView is what a badge renderer needs: the entries still unread
// after local dismissals, and their count.
type UnreadView struct {
	Display []UnreadEntry `json:"display"`
	Count   int           `json:"count"`
}

// UnreadSession reconciles the server's unread flags with conversations
// the user dismissed during the current session. A dismissed conversation
// stays suppressed until the next authoritative refresh; the refresh
// clears the dismissed set, so a conversation that picked up a new
// message in the meantime correctly reappears as unread.
//
// Not safe for concurrent use; each websocket client owns one session and
// drives it from its own read loop.
type UnreadSession struct {
	entries   []UnreadEntry
	dismissed map[uint]bool
}

func NewUnreadSession() *UnreadSession {
	return &UnreadSession{dismissed: map[uint]bool{}}
}

// Refresh replaces the session snapshot with a fresh authoritative fetch
// and resets all local dismissals.
func (s *UnreadSession) Refresh(entries []UnreadEntry) UnreadView {
	s.entries = make([]UnreadEntry, len(entries))
	copy(s.entries, entries)
	s.dismissed = map[uint]bool{}
	return s.View()
}

// Dismiss suppresses one conversation's unread state until the next
// Refresh. Dismissing an id the server never reported is harmless.
func (s *UnreadSession) Dismiss(id uint) UnreadView {
	s.dismissed[id] = true
	return s.View()
}

// View computes the current display list and badge count.
func (s *UnreadSession) View() UnreadView {
	v := UnreadView{Display: []UnreadEntry{}}
	for _, e := range s.entries {
		if e.Unread && !s.dismissed[e.ID] {
			v.Display = append(v.Display, e)
		}
	}
	v.Count = len(v.Display)
	return v
}

// ReconcileUnread is the one-shot form used by the conversation list
// handler: merge a server list with an externally-held dismissed set.
func ReconcileUnread(entries []UnreadEntry, dismissed map[uint]bool) UnreadView {
	v := UnreadView{Display: []UnreadEntry{}}
	for _, e := range entries {
		if e.Unread && !dismissed[e.ID] {
			v.Display = append(v.Display, e)
		}
	}
	v.Count = len(v.Display)
	return v
}
