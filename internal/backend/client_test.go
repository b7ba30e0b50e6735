package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, DefaultTimeouts(), nil)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			t.Errorf("path = %q", r.URL.Path)
		}
		writeJSON(w, 200, `{"ready":false,"hasQR":true,"qr":"2@abc","status":"qr_received"}`)
	})

	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.Ready || !st.HasQR || st.QR != "2@abc" || st.Status != "qr_received" {
		t.Errorf("Status() = %+v", st)
	}
}

func TestStatusTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	tm := DefaultTimeouts()
	tm.Status = 50 * time.Millisecond
	c := New(srv.URL, tm, nil)

	_, err := c.Status(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTimeout(err) {
		t.Errorf("IsTimeout(%v) = false", err)
	}
	if got := Describe(err); got != "Backend timeout" {
		t.Errorf("Describe() = %q", got)
	}
}

func TestUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", DefaultTimeouts(), nil)
	_, err := c.Contacts(context.Background())
	if !IsConnectivity(err) {
		t.Fatalf("expected ConnectivityError, got %v", err)
	}
}

func TestContacts(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"success":true,"contacts":[
			{"id":{"_serialized":"1@c.us"},"name":"Ana","number":"551199","pushname":"Aninha"},
			{"id":"2@c.us","name":"Bia","phone":"5522"},
			"garbage"
		]}`)
	})

	got, err := c.Contacts(context.Background())
	if err != nil {
		t.Fatalf("Contacts() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d contacts, want 2", len(got))
	}
	if got[0].ID != "1@c.us" || got[0].Phone != "551199" || got[0].PushName != "Aninha" {
		t.Errorf("contact[0] = %+v", got[0])
	}
	if got[1].Phone != "5522" {
		t.Errorf("contact[1].Phone = %q", got[1].Phone)
	}
}

func TestDataErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"success false", `{"success":false,"error":"WhatsApp not ready"}`, "WhatsApp not ready"},
		{"malformed", `{"success":tr`, "malformed response"},
		{"missing array", `{"success":true}`, "no chats in response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 200, tt.body)
			})
			_, err := c.Chats(context.Background())
			var de *DataError
			if !errors.As(err, &de) {
				t.Fatalf("expected DataError, got %v", err)
			}
			if de.Msg != tt.msg {
				t.Errorf("Msg = %q, want %q", de.Msg, tt.msg)
			}
		})
	}
}

func TestNon2xxIsConnectivity(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 500, `{"success":false,"error":"boom"}`)
	})
	_, err := c.Chats(context.Background())
	var ce *ConnectivityError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConnectivityError, got %v", err)
	}
	if ce.StatusCode != 500 || ce.Msg != "boom" {
		t.Errorf("err = %+v", ce)
	}
	if Describe(err) != "boom" {
		t.Errorf("Describe() = %q", Describe(err))
	}
}

func TestChatEscapesID(t *testing.T) {
	var escaped string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		escaped = r.URL.EscapedPath()
		writeJSON(w, 200, `{"success":true,"chat":{"id":"5511@c.us","name":"Ana","lastMessage":{"id":{"_serialized":"m9"},"body":"latest","timestamp":1700000000}},
			"messages":[
				{"id":"m2","body":"second","timestamp":1700000002,"fromMe":true},
				{"id":"m1","body":"first","timestamp":"1700000001"}
			]}`)
	})

	d, err := c.Chat(context.Background(), "5511@c.us")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if escaped != "/chat/5511%40c.us" {
		t.Errorf("escaped path = %q", escaped)
	}
	if d.Chat.Name != "Ana" {
		t.Errorf("chat = %+v", d.Chat)
	}
	if len(d.History.Messages) != 2 || !d.History.Sortable {
		t.Fatalf("history = %+v", d.History)
	}
	if d.History.Messages[1].Timestamp != 1700000001000 {
		t.Errorf("timestamp = %d, want millis", d.History.Messages[1].Timestamp)
	}
	if !d.History.Messages[0].FromMe {
		t.Error("FromMe lost")
	}
	if d.Last == nil || d.Last.ID != "m9" || d.Last.Body != "latest" {
		t.Errorf("Last = %+v", d.Last)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat/1@c.us/messages":
			writeJSON(w, 200, `{"success":true,"messages":[{"id":"a","body":"x","timestamp":"soon"}]}`)
		case "/api/chat/1@c.us/history":
			writeJSON(w, 200, `{"history":[{"body":"no id","timestamp":1700000000123}]}`)
		case "/api/conversations/1@c.us":
			writeJSON(w, 200, `{"conversation":{"messages":[{"id":7,"body":"n"}]}}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	h, err := c.ChatMessages(ctx, "1@c.us")
	if err != nil {
		t.Fatalf("ChatMessages() error = %v", err)
	}
	if h.Sortable {
		t.Error("non-numeric timestamp should make history unsortable")
	}

	h, err = c.ChatHistory(ctx, "1@c.us")
	if err != nil {
		t.Fatalf("ChatHistory() error = %v", err)
	}
	if len(h.Messages) != 1 || h.Messages[0].ID != "ts-1700000000123" {
		t.Errorf("history = %+v", h.Messages)
	}
	if h.Messages[0].Timestamp != 1700000000123 {
		t.Errorf("millis timestamp changed: %d", h.Messages[0].Timestamp)
	}

	h, err = c.ArchivedConversation(ctx, "1@c.us")
	if err != nil {
		t.Fatalf("ArchivedConversation() error = %v", err)
	}
	if len(h.Messages) != 1 || h.Messages[0].ID != "7" {
		t.Errorf("archived = %+v", h.Messages)
	}
}

func TestLatestMessageAbsent(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"success":true,"chat":{"id":"1","name":"A"}}`)
	})
	_, ok, err := c.LatestMessage(context.Background(), "1", time.Second)
	if err != nil || ok {
		t.Errorf("LatestMessage() ok=%v err=%v, want false nil", ok, err)
	}
}

func TestSendMessage(t *testing.T) {
	var got sendRequest
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/send-message" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		writeJSON(w, 200, `{"success":true,"messageId":"true_1@c.us_ABC","timestamp":1}`)
	})

	id, err := c.SendMessage(context.Background(), "1@c.us", "olá")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if id != "true_1@c.us_ABC" {
		t.Errorf("id = %q", id)
	}
	if got.To != "1@c.us" || got.Message != "olá" {
		t.Errorf("request = %+v", got)
	}
}

func TestSendMessageRejected(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 400, `{"success":false,"error":"WhatsApp not ready"}`)
	})
	_, err := c.SendMessage(context.Background(), "1", "hi")
	if Describe(err) != "WhatsApp not ready" {
		t.Errorf("Describe() = %q", Describe(err))
	}
}

func TestResetAccount(t *testing.T) {
	var method string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		if r.URL.Path != "/api/reset-account" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})
	if err := c.ResetAccount(context.Background()); err != nil {
		t.Fatalf("ResetAccount() error = %v", err)
	}
	if method != http.MethodDelete {
		t.Errorf("method = %q", method)
	}
}

func TestDescribeBounded(t *testing.T) {
	err := &DataError{Op: "x", Msg: strings.Repeat("long ", 40)}
	if got := Describe(err); len([]rune(got)) > MaxDescription {
		t.Errorf("Describe() len = %d", len([]rune(got)))
	}
	if Describe(nil) != "" {
		t.Error("Describe(nil) should be empty")
	}
}

func TestNormalizeMillis(t *testing.T) {
	tests := []struct{ in, want int64 }{
		{0, 0},
		{1700000000, 1700000000000},
		{1700000000000, 1700000000000},
	}
	for _, tt := range tests {
		if got := NormalizeMillis(tt.in); got != tt.want {
			t.Errorf("NormalizeMillis(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
