package session

import (
	"fmt"
	"slices"
	"sync"

	"github.com/voxagent/voxagent/internal/schema"
)

// History is the bounded, ordered message log of one conversation. The
// system message is pinned: it is always first in a snapshot and is never
// evicted. maxLen bounds the non-pinned messages; 0 means unbounded.
type History struct {
	mu       sync.RWMutex
	system   *schema.Message
	messages []schema.Message
	maxLen   int
}

// NewHistory creates a History pinned to systemPrompt (none when empty).
func NewHistory(systemPrompt string, maxLen int) *History {
	h := &History{maxLen: max(maxLen, 0)}
	if systemPrompt != "" {
		msg := schema.NewSystemMessage(systemPrompt)
		h.system = &msg
	}
	return h
}

// Append adds msg at the end, evicting the oldest non-pinned messages when
// the bound is exceeded. A system message replaces the pinned one. A tool
// result must answer a tool call currently held.
func (h *History) Append(msg schema.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if msg.Role == schema.RoleSystem {
		pinned := msg.Clone()
		h.system = &pinned
		return nil
	}

	if msg.Role == schema.RoleTool && !h.hasCallLocked(msg.ToolCallID) {
		return fmt.Errorf("%w: %q", ErrOrphanToolResult, msg.ToolCallID)
	}

	h.messages = append(h.messages, msg.Clone())
	h.evictLocked()
	return nil
}

// Snapshot returns a deep copy of the history, system message first.
func (h *History) Snapshot() []schema.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]schema.Message, 0, len(h.messages)+1)
	if h.system != nil {
		out = append(out, h.system.Clone())
	}
	for _, m := range h.messages {
		out = append(out, m.Clone())
	}
	return out
}

// Messages returns a deep copy of the non-pinned messages.
func (h *History) Messages() []schema.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return schema.CloneMessages(h.messages)
}

// Reset clears every non-pinned message. With keepSystem false the pinned
// system message is dropped too.
func (h *History) Reset(keepSystem bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
	if !keepSystem {
		h.system = nil
	}
}

// SetSystem replaces the pinned system message; an empty prompt removes it.
func (h *History) SetSystem(prompt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if prompt == "" {
		h.system = nil
		return
	}
	msg := schema.NewSystemMessage(prompt)
	h.system = &msg
}

// System returns the pinned system prompt, or "".
func (h *History) System() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.system == nil {
		return ""
	}
	return h.system.Content
}

// Len returns the number of non-pinned messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// MaxLen returns the configured bound (0 = unbounded).
func (h *History) MaxLen() int {
	return h.maxLen
}

// Validate checks that every tool call is immediately followed by its result
// and that no result appears without its call.
func (h *History) Validate() error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dangling, orphans := scan(h.messages)
	if len(dangling) == 0 && len(orphans) == 0 {
		return nil
	}
	return &MalformedHistoryError{DanglingCalls: dangling, OrphanResults: orphans}
}

// Repair removes tool calls that have no result and results that have no
// call. Assistant messages left with neither text nor calls are dropped.
// It returns the number of calls and results removed.
func (h *History) Repair() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	dangling, orphans := scan(h.messages)
	if len(dangling) == 0 && len(orphans) == 0 {
		return 0
	}

	out := make([]schema.Message, 0, len(h.messages))
	for i := 0; i < len(h.messages); i++ {
		m := h.messages[i]

		if m.Role == schema.RoleTool {
			// Results are only kept as part of their call group below.
			continue
		}
		if !m.HasToolCalls() {
			out = append(out, m)
			continue
		}

		results := map[string]schema.Message{}
		j := i + 1
		for ; j < len(h.messages) && h.messages[j].Role == schema.RoleTool; j++ {
			r := h.messages[j]
			if _, dup := results[r.ToolCallID]; !dup {
				results[r.ToolCallID] = r
			}
		}

		kept := m.Clone()
		kept.ToolCalls = slices.DeleteFunc(kept.ToolCalls, func(tc schema.ToolCall) bool {
			_, ok := results[tc.ID]
			return !ok
		})
		if len(kept.ToolCalls) == 0 {
			kept.ToolCalls = nil
			if kept.Content != "" {
				out = append(out, kept)
			}
		} else {
			out = append(out, kept)
			for _, tc := range kept.ToolCalls {
				out = append(out, results[tc.ID])
			}
		}
		i = j - 1
	}

	h.messages = out
	return len(dangling) + len(orphans)
}

// restore replaces the non-pinned messages without checks. Used when loading
// from disk; callers repair afterwards.
func (h *History) restore(msgs []schema.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = schema.CloneMessages(msgs)
	h.evictLocked()
}

// ---- internals ----

func (h *History) hasCallLocked(id string) bool {
	for i := len(h.messages) - 1; i >= 0; i-- {
		for _, tc := range h.messages[i].ToolCalls {
			if tc.ID == id {
				return true
			}
		}
	}
	return false
}

// evictLocked drops the oldest messages until the bound holds. Evicting an
// assistant message also evicts the results of its tool calls, and results
// left at the head without their call are dropped. The latest user message
// and everything after it form the turn in progress and are never evicted,
// so a tool-heavy turn may hold more than maxLen messages until the next
// utterance arrives.
func (h *History) evictLocked() {
	if h.maxLen <= 0 {
		return
	}
	for len(h.messages) > h.maxLen {
		if h.lastUserLocked() == 0 {
			break
		}
		first := h.messages[0]
		h.messages = h.messages[1:]

		if first.HasToolCalls() {
			ids := make(map[string]struct{}, len(first.ToolCalls))
			for _, tc := range first.ToolCalls {
				ids[tc.ID] = struct{}{}
			}
			h.messages = slices.DeleteFunc(h.messages, func(m schema.Message) bool {
				_, answered := ids[m.ToolCallID]
				return m.Role == schema.RoleTool && answered
			})
		}
		for len(h.messages) > 0 && h.messages[0].Role == schema.RoleTool {
			h.messages = h.messages[1:]
		}
	}
	h.messages = slices.Clip(h.messages)
}

// lastUserLocked returns the index of the latest user message, or -1.
func (h *History) lastUserLocked() int {
	for i := len(h.messages) - 1; i >= 0; i-- {
		if h.messages[i].Role == schema.RoleUser {
			return i
		}
	}
	return -1
}

// scan reports call IDs with no immediately following result and result IDs
// with no call in the preceding assistant message.
func scan(msgs []schema.Message) (dangling, orphans []string) {
	for i := 0; i < len(msgs); i++ {
		m := msgs[i]
		switch {
		case m.HasToolCalls():
			pending := make(map[string]bool, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				pending[tc.ID] = true
			}
			j := i + 1
			for ; j < len(msgs) && msgs[j].Role == schema.RoleTool; j++ {
				if pending[msgs[j].ToolCallID] {
					delete(pending, msgs[j].ToolCallID)
				} else {
					orphans = append(orphans, msgs[j].ToolCallID)
				}
			}
			for _, tc := range m.ToolCalls {
				if pending[tc.ID] {
					dangling = append(dangling, tc.ID)
				}
			}
			i = j - 1
		case m.Role == schema.RoleTool:
			orphans = append(orphans, m.ToolCallID)
		}
	}
	return dangling, orphans
}
