package quiz

// DefaultQuestions returns the communication-style questionnaire.
// A fresh slice is returned on every call.
func DefaultQuestions() []Question {
	return []Question{
		{
			ID:     "q1",
			Number: 1,
			Prompt: `A friend texts you "Hey, what are you up to this weekend?". How do you reply?`,
			Type:   TypeChoice,
			Options: []string{
				"Just chilling, hbu?",
				"Not much planned yet, maybe catch a movie or something. You got any ideas?",
				"I am currently evaluating my options for the upcoming weekend. I will let you know once my schedule is finalized.",
				"🎉 not sure yet! open to adventures tho! 🚀 what about you?",
			},
		},
		{
			ID:      "q2",
			Number:  2,
			Prompt:  "How often do you use emojis in your texts?",
			Type:    TypeChoice,
			Options: []string{"In almost every message", "Sometimes, to add emphasis", "Rarely", "Never"},
		},
		{
			ID:     "q3",
			Number: 3,
			Prompt: "Someone asks you a question you don't know the answer to. What do you say?",
			Type:   TypeChoice,
			Options: []string{
				`"idk"`,
				`"Hmm, good question. I'm not sure but I can look it up."`,
				`"I do not possess the information required to answer that query."`,
				`"That's a stumper! Let me google that real quick."`,
			},
		},
		{
			ID:      "q4",
			Number:  4,
			Prompt:  "Describe your sense of humor in one or two words.",
			Type:    TypeChoice,
			Options: []string{"Sarcastic", "Witty / Dry", "Silly / Goofy", "Dark"},
		},
		{
			ID:     "q5",
			Number: 5,
			Prompt: "What's your go-to conversation starter?",
			Type:   TypeChoice,
			Options: []string{
				"Any fun plans for the weekend?",
				"Seen any good movies/shows lately?",
				"Something observational about the current situation.",
				"A random, interesting fact.",
			},
		},
		{
			ID:     "q6",
			Number: 6,
			Prompt: "When you share good news, are you more likely to be...",
			Type:   TypeChoice,
			Options: []string{
				`Short and sweet: "Got the job!"`,
				"Enthusiastic and detailed, with lots of exclamation points.",
				"Humble and understated.",
				"Funny and maybe a little self-deprecating about it.",
			},
		},
	}
}
