package conversation

import "dischat/app/service/memory"

var cannedLines = map[memory.Mood][]string{
	memory.MoodCurious: {
		"hmm good question",
		"honestly not sure",
		"idk tbh, what do you think",
		"that's a tough one",
		"depends who you ask",
		"no clue lol",
	},
	memory.MoodExcited: {
		"yooo",
		"let's gooo",
		"that's huge",
		"no way",
		"love that",
		"big if true",
	},
	memory.MoodPlayful: {
		"lmao",
		"ok that got me",
		"you're wild",
		"classic",
		"not you doing that",
		"peak chat moment",
	},
	memory.MoodCasual: {
		"fair",
		"true",
		"makes sense",
		"real",
		"same here",
		"can't argue with that",
		"yeah i feel that",
	},
}
