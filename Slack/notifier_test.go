package Slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ShiftAudit/Checklist"
	"ShiftAudit/Models"
	"ShiftAudit/Store"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type posted struct {
	channel     string
	text        string
	attachments string
}

func fakeSlack(t *testing.T, ok bool) (*httptest.Server, func() []posted) {
	t.Helper()
	var mu sync.Mutex
	var msgs []posted

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		mu.Lock()
		msgs = append(msgs, posted{
			channel:     r.Form.Get("channel"),
			text:        r.Form.Get("text"),
			attachments: r.Form.Get("attachments"),
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if ok {
			json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "channel": "C123", "ts": "1700000000.000100"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": "channel_not_found"})
	}))
	t.Cleanup(srv.Close)

	return srv, func() []posted {
		mu.Lock()
		defer mu.Unlock()
		return append([]posted(nil), msgs...)
	}
}

func TestNotifyNonConformity(t *testing.T) {
	srv, messages := fakeSlack(t, true)
	n := New("xoxb-test", "C123", slack.OptionAPIURL(srv.URL+"/"))

	report := Checklist.Report{
		SessionID:   uuid.New(),
		Responsible: "Ana Souza",
		ShiftLabel:  "Night",
		Context:     Models.ContextLabels{Area: "Welding", ProductionLine: "Welding Cell A"},
		Rows: []Checklist.ReportRow{
			{Number: 1, Text: "Area clean?", Status: Models.StatusOK, StatusLabel: "OK"},
			{Number: 2, Text: "Guards in place?", Status: Models.StatusNOK, StatusLabel: "NOK", Justification: "Guard cracked"},
		},
		Stats: Checklist.Stats{OK: 1, NOK: 1, Total: 2, OKPercent: 50, NOKPercent: 50},
	}

	require.NoError(t, n.NotifyNonConformity(context.Background(), report))

	msgs := messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "C123", msgs[0].channel)
	assert.Contains(t, msgs[0].text, "Welding / Welding Cell A")
	assert.Contains(t, msgs[0].attachments, "Guard cracked")
	assert.Contains(t, msgs[0].attachments, "1 non-conformity reported")
	assert.NotContains(t, msgs[0].attachments, "Area clean?")
}

func TestNotifyOrphans(t *testing.T) {
	srv, messages := fakeSlack(t, true)
	n := New("xoxb-test", "C123", slack.OptionAPIURL(srv.URL+"/"))

	require.NoError(t, n.NotifyOrphans(context.Background(), nil))
	assert.Empty(t, messages())

	s := Models.FormSession{Shift: Models.ShiftMorning, Area: Models.AreaStamping, StartedAt: time.Now()}
	s.ID = uuid.New()
	require.NoError(t, n.NotifyOrphans(context.Background(), []Store.OrphanedSession{{Session: s, AnswerCount: 7}}))

	msgs := messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, s.ID.String())
	assert.Contains(t, msgs[0].text, "1 checklist session saved")
	assert.Contains(t, msgs[0].text, "7 answers")
}

func TestNotifyReturnsSlackError(t *testing.T) {
	srv, _ := fakeSlack(t, false)
	n := New("xoxb-test", "C404", slack.OptionAPIURL(srv.URL+"/"))

	err := n.NotifyNonConformity(context.Background(), Checklist.Report{Stats: Checklist.Stats{NOK: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}
