package service

import "fmt"

// Summary styles accepted by the summarize endpoints.
const (
	StyleConcise      = "concise"
	StyleDetailed     = "detailed"
	StyleBulletPoints = "bullet_points"
	StyleExecutive    = "executive"
	StyleAcademic     = "academic"
)

var styleInstructions = map[string]string{
	StyleConcise:      "Provide a brief, concise summary that captures the main points.",
	StyleDetailed:     "Provide a comprehensive summary that covers all important details and nuances.",
	StyleBulletPoints: "Provide the summary as a list of bullet points highlighting key information.",
	StyleExecutive:    "Provide an executive summary suitable for business professionals, focusing on key findings, implications, and recommendations.",
	StyleAcademic:     "Provide an academic summary with proper structure: background, methods (if applicable), key findings, and conclusions.",
}

// Analysis types accepted by the analyze endpoint.
const (
	AnalysisGeneral   = "general"
	AnalysisSentiment = "sentiment"
	AnalysisEntities  = "entities"
	AnalysisTopics    = "topics"
)

var analysisPrompts = map[string]string{
	AnalysisGeneral: `Analyze the following document and provide:
1. Main topic/subject
2. Key points (3-5 points)
3. Target audience
4. Tone and style
5. Brief summary (2-3 sentences)`,

	AnalysisSentiment: `Analyze the sentiment of the following document. Provide:
1. Overall sentiment (positive/negative/neutral/mixed)
2. Sentiment score (-1.0 to 1.0)
3. Key positive aspects
4. Key negative aspects
5. Emotional tone`,

	AnalysisEntities: `Extract key entities from the following document:
1. People mentioned
2. Organizations
3. Locations
4. Dates/Times
5. Important numbers/statistics`,

	AnalysisTopics: `Identify the topics discussed in the following document:
1. Primary topic
2. Secondary topics
3. Keywords
4. Subject categories
5. Related themes`,
}

// summarySystemPrompt builds the system prompt for a summarization call.
// Unknown styles fall back to concise rather than erroring.
func summarySystemPrompt(style string, maxLength int) string {
	instruction, ok := styleInstructions[style]
	if !ok {
		instruction = styleInstructions[StyleConcise]
	}

	return fmt.Sprintf(`You are a professional document summarizer. Your task is to create clear, accurate summaries.

Instructions:
- %s
- Keep the summary to approximately %d words
- Maintain the factual accuracy of the original text
- Do not add information not present in the original text
- Use clear, professional language
- Preserve important names, dates, and figures`, instruction, maxLength)
}

func summaryPrompt(text string) string {
	return fmt.Sprintf(`Please summarize the following text:

---
%s
---

Summary:`, text)
}

// queryPrompt wraps a prompt with optional context material.
func queryPrompt(prompt, contextText string) string {
	if contextText == "" {
		return prompt
	}
	return fmt.Sprintf(`Context:
%s

Question/Task:
%s

Response:`, contextText, prompt)
}

// analysisPrompt builds the full prompt for a document analysis. Unknown
// analysis types fall back to general.
func analysisPrompt(analysisType, text string) string {
	template, ok := analysisPrompts[analysisType]
	if !ok {
		template = analysisPrompts[AnalysisGeneral]
	}

	return fmt.Sprintf(`%s

Document:
---
%s
---

Analysis:`, template, text)
}
