package llm

import "fmt"

// TranslationPrompt is the system prompt for translating one subtitle line
// into targetName.
func TranslationPrompt(targetName string) string {
	return fmt.Sprintf(`You translate spoken dialogue for subtitles.
Translate the user's message into %s. Keep the register and meaning of the speech.
Do not add notes, explanations, speaker names or quotation marks.
If the message is already in %s, return it unchanged.
Respond with JSON only: {"translation": "<translated text>"}`, targetName, targetName)
}
