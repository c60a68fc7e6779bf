// Package answer turns retrieved chunks into a grounded prompt and asks a
// language model to answer from it.
package answer

import "strings"

const promptInstruction = `You are a helpful assistant that answers questions strictly
based on the provided context. If the context is insufficient, say that you don't know
and suggest what additional information would be needed. Do not invent facts.`

// BuildPrompt is the only way a prompt reaches the generator. The model sees
// the retrieved chunks in retrieval order, separated by blank lines, and is
// told to answer from them alone.
func BuildPrompt(question string, context []string) string {
	var b strings.Builder
	b.WriteString(promptInstruction)
	b.WriteString("\n\nContext:\n")
	b.WriteString(strings.Join(context, "\n\n"))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer: ")
	return b.String()
}
