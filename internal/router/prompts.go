package router

import "strings"

const assistantSystemPrompt = "You are a helpful career assistant."

const answerPromptTemplate = `Use the provided context and conversation history to answer the current question.

If the answer comes from a document, include the source and filename in parentheses at the end.
Example: (Source: resumes / john_doe.pdf)

Context:
{context}

Conversation history (summarized if long):
{chat_history}

Question: {question}
Answer:`

const condensePromptTemplate = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.

Chat History:
{chat_history}
Follow Up Input: {question}
Standalone question:`

func renderPrompt(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
