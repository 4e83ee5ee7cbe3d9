package config

// DefaultAckPatterns match short acknowledgments that never deserve an answer.
var DefaultAckPatterns = []string{
	`(?i)^(ok|okay|alright|got it|nice|cool|thanks|thank you|ty|thx|k)\b[.!]*$`,
	`^((👍|✅|🆗|💯|✨|🙏|👌)[\x{1F3FB}-\x{1F3FF}\x{FE0F}]*)+$`,
	`(?i)^(sure|yep|yup|yeah|yes|no|nope)\b[.!]*$`,
	`(?i)^(mhm|hmm+|hm|ah|oh)\b[.!]*$`,
}

var DefaultBoilerplate = []string{
	"As an AI language model",
	"As an AI",
	"I understand",
	"I apologize",
	"I'm sorry",
	"Sorry",
	"Let me",
	"I would",
	"I think",
	"Actually",
	"Well",
	"You see",
	"To answer",
	"In response",
	"Certainly",
	"Of course",
	"Great question",
}

var DefaultFillers = []string{
	"ngl",
	"tbh",
	"honestly",
	"lowkey",
	"fr",
	"yo",
	"bruh",
}

var DefaultSubstitutions = map[string]string{
	"you":       "u",
	"your":      "ur",
	"are":       "r",
	"because":   "cuz",
	"though":    "tho",
	"people":    "ppl",
	"please":    "pls",
	"thanks":    "thx",
	"probably":  "prob",
	"really":    "rly",
	"something": "smth",
	"tonight":   "tonite",
	"okay":      "ok",
}

var DefaultTails = []string{
	"actually",
	"lol",
	"nvm",
	"ig",
}

var DefaultQuestionCues = []string{
	"what",
	"what's",
	"whats",
	"why",
	"how",
	"when",
	"where",
	"who",
	"which",
	"wyd",
	"hbu",
	"wbu",
}
