package permissions

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
)

func IsManager(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	if member.IsCreator() {
		return true
	}
	return member.IsAdministrator() && (member.CanManageChat || member.CanPromoteMembers)
}

func IsPrivilegedModerator(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	if IsManager(member) {
		return true
	}
	return member.IsAdministrator() && member.CanRestrictMembers
}

func CanDeleteMessages(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	if member.IsCreator() {
		return true
	}
	return member.IsAdministrator() && member.CanDeleteMessages
}

// IsChatModerator fetches the member and checks moderator rights; fetch
// failures are treated as not privileged.
func IsChatModerator(ctx context.Context, bot *api.BotAPI, chatID, userID int64) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}
	member, err := bot.GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
	})
	if err != nil {
		return false
	}
	return CanDeleteMessages(&member)
}
