package selector

import (
	"testing"

	"dischat/app/chat"
	"dischat/app/config"
)

const botID = "bot1"

func newService(t *testing.T) *Service {
	t.Helper()

	svc, err := NewService(config.DefaultAckPatterns)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	return svc
}

func message(id, author, content string) chat.Message {
	return chat.Message{ID: id, Author: chat.User{ID: author, DisplayName: author}, Content: content}
}

func TestSelect_MentionBeatsOlderReply(t *testing.T) {
	svc := newService(t)
	svc.RememberSent("50")

	reply := message("101", "bob", "haha true")
	reply.ParentID = "50"
	mention := message("102", "alice", "hey bot what do you think")
	mention.Mentions = []string{botID}

	result := svc.Select([]chat.Message{reply, mention}, botID, "100")

	if result.Selection == nil {
		t.Fatal("Expected a selection")
	}
	if result.Selection.Message.ID != "102" || result.Selection.Reason != ReasonMention || !result.Selection.ShouldTag {
		t.Errorf("Expected tagged mention 102, got %+v", result.Selection)
	}
	if len(result.Pending) != 1 || result.Pending[0].Message.ID != "101" || result.Pending[0].Reason != ReasonReply {
		t.Errorf("Expected reply 101 pending, got %+v", result.Pending)
	}
}

func TestSelect_ReplyToBot(t *testing.T) {
	svc := newService(t)
	svc.RememberSent("50")

	other := message("103", "carol", "anyway what about tacos")
	reply := message("101", "bob", "no way that is true")
	reply.ParentID = "50"

	result := svc.Select([]chat.Message{other, reply}, botID, "")

	if result.Selection == nil || result.Selection.Message.ID != "101" {
		t.Fatalf("Expected reply 101, got %+v", result.Selection)
	}
	if !result.Selection.ShouldTag || result.Selection.Reason != ReasonReply {
		t.Errorf("Expected tagged reply, got %+v", result.Selection)
	}
}

func TestSelect_ReplyToBotMessageInBatch(t *testing.T) {
	svc := newService(t)

	own := message("20", botID, "pineapple belongs on pizza")
	own.Author.Bot = true
	reply := message("21", "alice", "absolutely not")
	reply.ParentID = "20"
	newer := message("22", "bob", "what are we ordering")

	result := svc.Select([]chat.Message{own, reply, newer}, botID, "")

	if result.Selection == nil || result.Selection.Message.ID != "21" {
		t.Fatalf("Expected reply 21, got %+v", result.Selection)
	}
	if result.Selection.Reason != ReasonReply || !result.Selection.ShouldTag {
		t.Errorf("Expected tagged reply, got %+v", result.Selection)
	}
}

func TestSelect_ReplyWithResolvedParentAuthor(t *testing.T) {
	svc := newService(t)

	reply := message("31", "alice", "wait really")
	reply.ParentID = "5"
	reply.ParentAuthorID = botID
	newer := message("32", "bob", "anyway")

	result := svc.Select([]chat.Message{reply, newer}, botID, "30")

	if result.Selection == nil || result.Selection.Message.ID != "31" || result.Selection.Reason != ReasonReply {
		t.Fatalf("Expected reply 31, got %+v", result.Selection)
	}
}

func TestSelect_AmbientPicksNewest(t *testing.T) {
	svc := newService(t)

	batch := []chat.Message{
		message("12", "carol", "what about tacos"),
		message("9", "alice", "pizza is the best food"),
		message("10", "bot1", "i agree"),
		{ID: "11", Author: chat.User{ID: "other-bot", Bot: true}, Content: "beep"},
		message("13", "bob", "ok"),
	}

	result := svc.Select(batch, botID, "")

	if result.Selection == nil {
		t.Fatal("Expected a selection")
	}
	if result.Selection.Message.ID != "12" || result.Selection.ShouldTag || result.Selection.Reason != ReasonAmbient {
		t.Errorf("Expected untagged ambient 12, got %+v", result.Selection)
	}
	if len(result.Disqualified) != 1 || result.Disqualified[0].ID != "13" {
		t.Errorf("Expected 13 disqualified, got %+v", result.Disqualified)
	}
}

func TestSelect_Acknowledgments(t *testing.T) {
	svc := newService(t)

	for _, content := range []string{"ok", "thanks", "👍", "👍🏽", "👍\ufe0f", "👌👍", "yes", "No.", "  Thank you!  ", "k"} {
		msg := message("5", "alice", content)
		msg.Mentions = []string{botID}

		result := svc.Select([]chat.Message{msg}, botID, "")
		if result.Selection != nil {
			t.Errorf("Expected %q to be ignored, got %+v", content, result.Selection)
		}
		if len(result.Disqualified) != 1 {
			t.Errorf("Expected %q to be reported as disqualified", content)
		}
	}

	if svc.IsAcknowledgment("ok but what about pizza") {
		t.Error("Expected a longer message not to be an acknowledgment")
	}
}

func TestSelect_SkipsHandled(t *testing.T) {
	svc := newService(t)

	batch := []chat.Message{
		message("9", "alice", "pizza is the best food"),
		message("10", "bob", "tacos are better"),
	}

	if result := svc.Select(batch, botID, "10"); result.Selection != nil {
		t.Errorf("Expected nothing newer than 10, got %+v", result.Selection)
	}

	result := svc.Select(batch, botID, "9")
	if result.Selection == nil || result.Selection.Message.ID != "10" {
		t.Errorf("Expected 10, got %+v", result.Selection)
	}
}

func TestSelect_Empty(t *testing.T) {
	svc := newService(t)

	if result := svc.Select(nil, botID, ""); result.Selection != nil {
		t.Errorf("Expected no selection, got %+v", result.Selection)
	}
}

func TestNewestID(t *testing.T) {
	batch := []chat.Message{message("99", "a", "x"), message("1000", "b", "y"), message("101", "c", "z")}

	if got := NewestID(batch); got != "1000" {
		t.Errorf("Expected 1000, got %q", got)
	}
	if got := NewestID(nil); got != "" {
		t.Errorf("Expected empty id, got %q", got)
	}
}

func TestNewService_InvalidPattern(t *testing.T) {
	if _, err := NewService([]string{"("}); err == nil {
		t.Error("Expected error for invalid regex")
	}
}
