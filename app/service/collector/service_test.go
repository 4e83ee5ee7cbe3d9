package collector

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"dischat/app/chat"
	"dischat/app/config"
	"dischat/app/service/budget"
	"dischat/app/service/pattern"
	"dischat/app/service/selector"
	"dischat/app/util/clock"
)

var start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// historyPlatform serves a fixed history, oldest first, in pages ending before beforeID.
type historyPlatform struct {
	history  []chat.Message
	requests []string
	err      error
}

func (p *historyPlatform) Identity(_ context.Context) (chat.User, error) {
	return chat.User{ID: "bot", Bot: true}, nil
}

func (p *historyPlatform) FetchRecent(_ context.Context, _ string, limit int, beforeID string) ([]chat.Message, error) {
	p.requests = append(p.requests, beforeID)
	if p.err != nil {
		return nil, p.err
	}

	end := len(p.history)
	if beforeID != "" {
		for i, msg := range p.history {
			if msg.ID == beforeID {
				end = i
				break
			}
		}
	}

	begin := max(end-limit, 0)

	return append([]chat.Message(nil), p.history[begin:end]...), nil
}

func (p *historyPlatform) SendReply(_ context.Context, _, _ string, _ chat.ReplyOptions) (chat.Message, error) {
	return chat.Message{}, errors.New("not supported")
}

func (p *historyPlatform) StartTyping(_ context.Context, _ string) error {
	return nil
}

func msg(id int, author, content string) chat.Message {
	return chat.Message{
		ID:        fmt.Sprintf("%d", 1000+id),
		ChannelID: "chan",
		Author:    chat.User{ID: author, DisplayName: author},
		Content:   content,
		Timestamp: start.Add(time.Duration(id) * time.Minute),
	}
}

func newHarness(t *testing.T, platform *historyPlatform, cfg config.Collector, limit int) (*Service, *pattern.Service, *clock.Fake) {
	t.Helper()

	clk := clock.NewFake(start)
	patterns := pattern.NewService(pattern.NewFileBackend(filepath.Join(t.TempDir(), "patterns.json")), clk)

	sel, err := selector.NewService([]string{`^(ok|okay|k|thanks|thx|ty|lol|lmao)[.!]*$`})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	tracker := budget.NewTracker("polling", config.Quota{
		Limit:         limit,
		Window:        time.Hour,
		BackoffFactor: 1.5,
		MaxInterval:   time.Minute,
	}, clk)

	return NewService(platform, patterns, sel, tracker, clk, "chan", cfg), patterns, clk
}

func TestPairs(t *testing.T) {
	bot := msg(4, "bot", "i am a bot")
	bot.Author.Bot = true

	reply := msg(6, "carol", "totally agree")
	reply.ParentID = msg(1, "alice", "").ID

	batch := []chat.Message{
		msg(1, "alice", "anyone watching the game tonight"),
		msg(2, "bob", "yeah at 8"),
		msg(3, "bob", "bringing snacks"),
		bot,
		msg(5, "alice", "ok"),
		reply,
	}

	isAck := func(text string) bool { return text == "ok" }
	pairs := Pairs(batch, isAck)

	want := []struct{ trigger, response string }{
		{"anyone watching the game tonight", "yeah at 8"},
		{"anyone watching the game tonight", "totally agree"},
	}

	if len(pairs) != len(want) {
		t.Fatalf("Expected %d pairs, got %d: %+v", len(want), len(pairs), pairs)
	}

	for i, w := range want {
		if pairs[i].Trigger != w.trigger || pairs[i].Response != w.response {
			t.Errorf("Pair %d: got %q -> %q, want %q -> %q",
				i, pairs[i].Trigger, pairs[i].Response, w.trigger, w.response)
		}
	}

	if pairs[0].Author != "bob" {
		t.Errorf("Expected pair author to be the responder, got %q", pairs[0].Author)
	}
}

func TestPairs_ShortTrigger(t *testing.T) {
	batch := []chat.Message{
		msg(1, "alice", "yo"),
		msg(2, "bob", "hey there"),
	}

	if pairs := Pairs(batch, func(string) bool { return false }); len(pairs) != 0 {
		t.Errorf("Expected no pairs for a short trigger, got %+v", pairs)
	}
}

func TestService_RunPagesBackwards(t *testing.T) {
	var history []chat.Message
	for i := 0; i < 5; i++ {
		author := "alice"
		if i%2 == 1 {
			author = "bob"
		}
		history = append(history, msg(i, author, fmt.Sprintf("message number %d", i)))
	}

	platform := &historyPlatform{history: history}
	svc, patterns, clk := newHarness(t, platform, config.Collector{BatchSize: 2, BatchDelay: 2 * time.Second}, 50)

	stats, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wantRequests := []string{"", history[3].ID, history[1].ID}
	if len(platform.requests) != len(wantRequests) {
		t.Fatalf("Expected requests %v, got %v", wantRequests, platform.requests)
	}
	for i := range wantRequests {
		if platform.requests[i] != wantRequests[i] {
			t.Errorf("Request %d: expected before %q, got %q", i, wantRequests[i], platform.requests[i])
		}
	}

	if stats.Pages != 3 || stats.Messages != 5 {
		t.Errorf("Expected 3 pages and 5 messages, got %+v", stats)
	}

	// pairs never span page boundaries: 3-4 and 1-2
	if stats.Added != 2 || patterns.Len() != 2 {
		t.Errorf("Expected 2 stored patterns, got stats %+v and %d stored", stats, patterns.Len())
	}

	if slept := clk.Slept(); len(slept) != 2 || slept[0] != 2*time.Second {
		t.Errorf("Expected two 2s delays between pages, got %v", slept)
	}
}

func TestService_RunStopsOnBudget(t *testing.T) {
	var history []chat.Message
	for i := 0; i < 10; i++ {
		history = append(history, msg(i, fmt.Sprintf("user%d", i), fmt.Sprintf("line %d here", i)))
	}

	platform := &historyPlatform{history: history}
	svc, _, _ := newHarness(t, platform, config.Collector{BatchSize: 2, BatchDelay: time.Second}, 2)

	stats, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(platform.requests) != 2 || stats.Pages != 2 {
		t.Errorf("Expected the budget to stop after 2 pages, got %d requests and %+v", len(platform.requests), stats)
	}
}

func TestService_RunMaxPages(t *testing.T) {
	var history []chat.Message
	for i := 0; i < 10; i++ {
		history = append(history, msg(i, fmt.Sprintf("user%d", i), fmt.Sprintf("line %d here", i)))
	}

	platform := &historyPlatform{history: history}
	svc, _, _ := newHarness(t, platform, config.Collector{BatchSize: 3, MaxPages: 1}, 50)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(platform.requests) != 1 {
		t.Errorf("Expected a single page, got %d requests", len(platform.requests))
	}
}

func TestService_RunFetchError(t *testing.T) {
	platform := &historyPlatform{err: chat.ErrTransient}
	svc, _, _ := newHarness(t, platform, config.Collector{BatchSize: 2}, 50)

	if _, err := svc.Run(context.Background()); !errors.Is(err, chat.ErrTransient) {
		t.Errorf("Expected ErrTransient, got %v", err)
	}
}
