package backend

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/matheus3301/wppbridge/internal/store"
)

// History is a batch of messages from one history source.
type History struct {
	Messages []store.Message
	// Sortable is false when any timestamp was not numeric.
	Sortable bool
}

// firstArray returns the first of paths that resolves to a JSON array.
// An empty path means the document root.
func firstArray(r gjson.Result, paths ...string) (gjson.Result, bool) {
	for _, p := range paths {
		v := r
		if p != "" {
			v = r.Get(p)
		}
		if v.IsArray() {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// flattenID turns a structured id ({"_serialized": "..."}) or a bare
// string or number into a string.
func flattenID(v gjson.Result) string {
	switch {
	case v.IsObject():
		if s := v.Get("_serialized"); s.Exists() {
			return s.String()
		}
		return v.Get("id").String()
	case v.Type == gjson.String:
		return v.String()
	case v.Type == gjson.Number:
		return v.Raw
	default:
		return ""
	}
}

// NormalizeMillis converts a unix timestamp in seconds or milliseconds to
// milliseconds.
func NormalizeMillis(ts int64) int64 {
	if ts > 0 && ts < 1e12 {
		return ts * 1000
	}
	return ts
}

// parseTimestamp reads a numeric or numeric-string timestamp. A missing
// timestamp is zero; a non-numeric one is reported as unsortable.
func parseTimestamp(v gjson.Result) (int64, bool) {
	switch v.Type {
	case gjson.Null:
		return 0, true
	case gjson.Number:
		return NormalizeMillis(v.Int()), true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
		if err != nil {
			return 0, false
		}
		return NormalizeMillis(int64(f)), true
	default:
		return 0, false
	}
}

func parseMessage(v gjson.Result) (store.Message, bool) {
	tsField := v.Get("timestamp")
	ts, ok := parseTimestamp(tsField)

	m := store.Message{
		ID:          flattenID(v.Get("id")),
		Body:        firstString(v, "body", "text", "message"),
		FromMe:      v.Get("fromMe").Bool(),
		Timestamp:   ts,
		Type:        v.Get("type").String(),
		Author:      v.Get("author").String(),
		Participant: v.Get("participant").String(),
	}
	if m.Type == "" {
		m.Type = "chat"
	}
	if m.ID == "" {
		m.ID = "ts-" + syntheticKey(tsField)
	}
	return m, ok
}

func syntheticKey(ts gjson.Result) string {
	if ts.Exists() && ts.String() != "" {
		return ts.String()
	}
	return "0"
}

func parseHistory(arr gjson.Result) History {
	h := History{Sortable: true}
	arr.ForEach(func(_, v gjson.Result) bool {
		if !v.IsObject() {
			return true
		}
		m, ok := parseMessage(v)
		if !ok {
			h.Sortable = false
		}
		h.Messages = append(h.Messages, m)
		return true
	})
	return h
}

func parseChat(v gjson.Result) store.Chat {
	return store.Chat{
		ID:          flattenID(v.Get("id")),
		Name:        v.Get("name").String(),
		IsGroup:     v.Get("isGroup").Bool(),
		UnreadCount: int(v.Get("unreadCount").Int()),
	}
}

func parseContact(v gjson.Result) store.Contact {
	return store.Contact{
		ID:       flattenID(v.Get("id")),
		Name:     v.Get("name").String(),
		Phone:    firstString(v, "phone", "number"),
		PushName: v.Get("pushname").String(),
	}
}
