package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dischat/app/chat"
	"dischat/app/config"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/do"
)

const requestTimeout = 20 * time.Second

var _ do.Shutdownable = (*Client)(nil)

// Client talks to the Discord REST API only; the bot polls instead of holding a gateway session.
type Client struct {
	session *discordgo.Session
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	session.Client = &http.Client{
		Timeout: requestTimeout,
	}
	session.ShouldRetryOnRateLimit = false
	session.MaxRestRetries = 1

	return &Client{
		session: session,
	}, nil
}

func (c *Client) Identity(ctx context.Context) (chat.User, error) {
	user, err := c.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return chat.User{}, classify(err)
	}

	return toUser(user), nil
}

// FetchRecent returns up to limit messages older than beforeID (or the newest ones), oldest first.
func (c *Client) FetchRecent(ctx context.Context, channelID string, limit int, beforeID string) ([]chat.Message, error) {
	messages, err := c.session.ChannelMessages(channelID, limit, beforeID, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}

	result := make([]chat.Message, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		result = append(result, toMessage(messages[i]))
	}

	return result, nil
}

func (c *Client) SendReply(ctx context.Context, channelID, text string, opts chat.ReplyOptions) (chat.Message, error) {
	sent, err := c.session.ChannelMessageSendComplex(channelID, buildReply(channelID, text, opts),
		discordgo.WithContext(ctx))
	if err != nil {
		return chat.Message{}, classify(err)
	}

	return toMessage(sent), nil
}

func (c *Client) StartTyping(ctx context.Context, channelID string) error {
	if err := c.session.ChannelTyping(channelID, discordgo.WithContext(ctx)); err != nil {
		return classify(err)
	}

	return nil
}

func (c *Client) Shutdown() error {
	slog.Debug("Closing discord client")
	c.session.Client.CloseIdleConnections()

	return nil
}

func buildReply(channelID, text string, opts chat.ReplyOptions) *discordgo.MessageSend {
	send := &discordgo.MessageSend{
		Content: text,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Users:       opts.MentionUserIDs,
			RepliedUser: len(opts.MentionUserIDs) > 0,
		},
	}

	if opts.ParentMessageID != "" {
		send.Reference = &discordgo.MessageReference{
			MessageID: opts.ParentMessageID,
			ChannelID: channelID,
		}
	}

	return send
}

// classify marks throttling, 5xx and network failures as transient. Other API answers are
// returned as is.
func classify(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		status := restErr.Response.StatusCode
		if status == http.StatusTooManyRequests || status >= 500 {
			return fmt.Errorf("%w: discord returned %d: %w", chat.ErrTransient, status, err)
		}

		return fmt.Errorf("discord returned %d: %w", status, err)
	}

	return fmt.Errorf("%w: %w", chat.ErrTransient, err)
}
