package debate

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/monologue/internal/llm"
	"github.com/Iron-Ham/monologue/internal/reasoner"
)

// Participant names used for logging and display.
const (
	NameDebaterA   = "debater-a"
	NameDebaterB   = "debater-b"
	NameSummarizer = "summarizer"
)

const (
	systemPromptA = "You use your internal monologue to reason before responding to the user. " +
		"You are a participant in an ai debate competition. " +
		"Give clear and strong arguments responding to each question. " +
		"You will start the debate. " +
		"Keep your responses short. " +
		"Don't repeat your previous answers."

	systemPromptB = "You use your internal monologue to reason before responding to the user. " +
		"You are a participant in an ai debate competition. " +
		"You will be answering second in the debate after the first person. " +
		"Give clear and strong arguments responding to each question. " +
		"Keep your responses short. " +
		"Don't repeat your previous answers."

	systemPromptSummarizer = "You will summarize for the debate points."
)

// prompts holds the side-specific wording of a turn.
type prompts struct {
	brainstorm     string // Internal monologue when thinking first
	brainstormNote string // Fixed note otherwise
	pick           string // Followed by the options, one per line
	pickNote       string
}

var sidePrompts = map[Side]prompts{
	SideA: {
		brainstorm:     "I should brainstorm one different argument to agree on this topic.",
		brainstormNote: "I should speak in favour of this viewpoint and respond to the other debater.",
		pick: "I need to choose the cleverest response, I can only choose one which can argue against " +
			"my opponent or agree on this topic. My argument is:\n",
		pickNote: "I need to choose the best response",
	},
	SideB: {
		brainstorm:     "I should strongly disagree with the viewpoint and respond to my opponent",
		brainstormNote: "I should brainstorm a list of arguments against the viewpoint and respond to my opponent.",
		pick:           "I need to choose the strongest response, I can only choose one. My argument is:\n",
		pickNote:       "I need to choose the best response disagreeing with my opponent",
	},
}

const (
	speakPrompt     = "I'll respond to the user using the response I chose and also present a single argument in less than 100 words."
	lastAnswerNote  = "[Internal Monologue] my last answer is: "
	summarizePrompt = "I'll summarize it within 200 words"
	closingPrompt   = "I will summarize what are objective facts vs subjective opinions for this topic"
	rebuttalSuffix  = ", regarding what my opponent said: "
)

// recap is the message a debater's conversation is reset to at the start
// of each turn.
func recap(topic string, own, opponent []string) string {
	if len(own) == 0 && len(opponent) == 0 {
		return fmt.Sprintf("%sTopic of the debate is: %s.", reasoner.MonologuePrefix, topic)
	}
	return fmt.Sprintf("%sTopic of the debate is: %s. My previous arguments are %s. "+
		"My opponent's previous arguments are %s. Please don't repeat yourself and say one argument per time",
		reasoner.MonologuePrefix, topic, strings.Join(own, "\n"), strings.Join(opponent, "\n"))
}

// NewDebaterA builds the reasoner arguing for the topic.
func NewDebaterA(completer llm.Completer, opts ...reasoner.Option) *reasoner.Reasoner {
	return reasoner.New(completer, append([]reasoner.Option{
		reasoner.WithSystemPrompt(systemPromptA),
		reasoner.WithName(NameDebaterA),
	}, opts...)...)
}

// NewDebaterB builds the reasoner arguing against the topic.
func NewDebaterB(completer llm.Completer, opts ...reasoner.Option) *reasoner.Reasoner {
	return reasoner.New(completer, append([]reasoner.Option{
		reasoner.WithSystemPrompt(systemPromptB),
		reasoner.WithName(NameDebaterB),
	}, opts...)...)
}

// NewSummarizer builds the reasoner that condenses histories. Pass
// reasoner.WithModel to use a cheaper model than the debaters.
func NewSummarizer(completer llm.Completer, opts ...reasoner.Option) *reasoner.Reasoner {
	return reasoner.New(completer, append([]reasoner.Option{
		reasoner.WithSystemPrompt(systemPromptSummarizer),
		reasoner.WithName(NameSummarizer),
	}, opts...)...)
}
