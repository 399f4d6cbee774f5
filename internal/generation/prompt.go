package generation

import "strings"

// Fixed directives appended to every user prompt. Wording matters to the
// model; change with care.
const (
	qualityDirective = "IMPORTANT: High quality, photorealistic, cinematic lighting, 8k resolution."

	identityDirective = "IMPORTANT: The character in the image MUST have the exact same facial " +
		"features and likeness as the person in the attached ALL attached reference images. " +
		"Look at all reference photos to understand the facial structure from different angles. " +
		"Preserve identity strictly."
)

// BuildPrompt wraps the user's style prompt with the photorealism and
// identity-preservation directives. Pure concatenation, deterministic.
func BuildPrompt(userPrompt string) string {
	var b strings.Builder
	b.WriteString("Generate an image based on this prompt: ")
	b.WriteString(strings.TrimSpace(userPrompt))
	b.WriteString(".\n")
	b.WriteString(qualityDirective)
	b.WriteString("\n")
	b.WriteString(identityDirective)
	return b.String()
}
