package query

import "strings"

// BuildPrompt joins the retrieved contexts one per line and frames them
// with the question.
func BuildPrompt(contexts []string, question string) string {
	var b strings.Builder
	b.WriteString("Answer the question using the following information:\n\nContext:\n")
	b.WriteString(strings.Join(contexts, "\n"))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
