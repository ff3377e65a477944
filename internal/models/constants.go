package models

const (
	// ContextSeparator joins the rendered context blocks handed to the LLM.
	ContextSeparator = "\n---\n"

	// GeneralDomain is the fallback label for unclassified documents.
	GeneralDomain = "general"
)

var (
	SystemPrompt = `You are an expert Enterprise Systems Consultant answering questions about operational manuals.
Answer using ONLY the provided context. Be accurate and complete.

Rules:
1. Use exact terminology from the manuals
2. Format steps as numbered lists
3. Bold all UI element names
4. If info is missing, say so clearly
5. End with source citations

Format sources as:
**Source:** filename.pdf, Page X`

	QueryPromptTemplate = `Context from the manuals:
%s

%s

Question: %s`
)
