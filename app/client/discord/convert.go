package discord

import (
	"dischat/app/chat"

	"github.com/bwmarrin/discordgo"
	"github.com/elliotchance/pie/v2"
)

func toUser(user *discordgo.User) chat.User {
	if user == nil {
		return chat.User{}
	}

	name := user.GlobalName
	if name == "" {
		name = user.Username
	}

	return chat.User{
		ID:          user.ID,
		DisplayName: name,
		Bot:         user.Bot,
	}
}

func toMessage(msg *discordgo.Message) chat.Message {
	result := chat.Message{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		Author:    toUser(msg.Author),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		Mentions: pie.Map(msg.Mentions, func(u *discordgo.User) string {
			return u.ID
		}),
	}

	switch {
	case msg.MessageReference != nil:
		result.ParentID = msg.MessageReference.MessageID
	case msg.ReferencedMessage != nil:
		result.ParentID = msg.ReferencedMessage.ID
	}

	if ref := msg.ReferencedMessage; ref != nil && ref.Author != nil {
		result.ParentAuthorID = ref.Author.ID
	}

	return result
}
