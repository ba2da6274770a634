package usecase

import "strings"

// ReplyPrefix is prepended to every generated reply in the chat response.
const ReplyPrefix = "Career Advisor says: "

const (
	replyDeveloper = "That's great! Software development is in high demand."
	replyDesigner  = "Designers have a unique eye for visuals — it's a creative and growing field."
	replyHelp      = "I'm here to guide you. What career interests you?"
	replyFallback  = "Sorry, I didn't understand that. Try asking about a career!"
)

// replyRules are checked in order; the first trigger found wins.
var replyRules = []struct {
	trigger string
	reply   string
}{
	{trigger: "developer", reply: replyDeveloper},
	{trigger: "designer", reply: replyDesigner},
	{trigger: "help", reply: replyHelp},
}

// GenerateReply maps an already lower-cased message to a canned reply.
func GenerateReply(message string) string {
	for _, r := range replyRules {
		if strings.Contains(message, r.trigger) {
			return r.reply
		}
	}
	return replyFallback
}
