package service

import "fmt"

// fallbackReplies are the canned acknowledgements substituted when the AI
// service is unavailable, selected round-robin by turn number so repeated
// failures don't repeat the same sentence.
var fallbackReplies = []string{
	"Thank you! Could you tell me more details?",
	"I see, that's an interesting perspective. What background led you to feel this way?",
	"Could you tell me more specifically about that idea?",
	"In what situations do you feel that need?",
	"What good things do you think would happen if that feature existed?",
}

func fallbackReply(turn int) string {
	if turn < 1 {
		turn = 1
	}
	return fallbackReplies[(turn-1)%len(fallbackReplies)]
}

// closingReply is the fixed terminal-turn response. Turn two never consults
// the AI service: the wrap-up is deterministic, which keeps the conversation
// length bounded and makes one-shot issue creation tractable.
const closingReply = "Thank you for your feedback! We have everything we need and will file it with the development team right away."

const assistantRole = `You are a feedback collection assistant. Users often propose solutions (HOW), but your job is to understand WHY the change is needed and WHAT problem it solves. Act like an empathetic, curious consultant: show empathy, avoid jargon, and ask questions one at a time, concisely.`

// elaborationPrompt builds the turn-one prompt: react positively and ask a
// single clarifying question about why the requested change is needed.
// Image-only turns have no textual anchor, so the prompt asks the model to
// describe the attachments first.
func elaborationPrompt(message string, imageCount int) string {
	prompt := fmt.Sprintf(`%s

The user's first message: %q

React positively to the request, then ask one short clarifying question about why the user feels this change is needed - what difficulty or inconvenience is behind it.`, assistantRole, message)
	if imageCount > 0 {
		prompt += fmt.Sprintf(`

The user attached %d image(s). Briefly describe what you see in them before asking your question.`, imageCount)
	}
	return prompt
}

// continuationPrompt covers turns past the scripted protocol. Conformant
// widgets stop at two user turns, but the conversation stays coherent if
// they don't.
func continuationPrompt(message string) string {
	return fmt.Sprintf(`%s

The user's follow-up message: %q

Ask about concrete use cases: in what situations would this be used, and how is the user coping today?`, assistantRole, message)
}

// analysisPrompt asks the model to distill a conversation into structured
// issue data.
const analysisPrompt = `Analyze the following conversation between a user and a feedback assistant, and extract data for creating an issue in the project tracker.

Respond with JSON only, in exactly this shape:

{
  "title": "Concise and clear title (within 50 characters)",
  "description": "Detailed description including problem background, current issues, and expected results",
  "labels": ["array of appropriate labels"],
  "category": "feature|bug|improvement|question",
  "priority": "low|medium|high"
}

Priority criteria: high for security issues, critical bugs, or anything affecting many users; medium for feature improvements and usability; low for minor polish.

Conversation:
`
