package chatflow

// DefaultSystemMessageTmpl is the system message used when a collection
// does not override it.
const DefaultSystemMessageTmpl = `You are a helpful assistant that answers questions using only the provided context.
If the context does not contain the answer, say that you do not know. Do not invent facts.`

// DefaultCompletionPromptTmpl renders the retrieved context and the user
// input into the final prompt. Collections may supply their own template
// text; it is executed with the same TemplateData fields.
const DefaultCompletionPromptTmpl = `Use the following pieces of context to answer the question at the end.

Context:
{{.Context}}
{{- if .History}}

Conversation so far:
{{.History}}
{{- end}}

Question: {{.Input}}

Answer:`
