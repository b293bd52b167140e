// ABOUTME: Answer prompt construction
// ABOUTME: Context, verbatim question and ten instruction sections steering long, cited answers
package llm

import (
	"fmt"
	"strings"
)

const vietnameseInstruction = `Trả lời bằng tiếng Việt một cách chi tiết, đầy đủ và rõ ràng.
   - Sử dụng ngôn ngữ tự nhiên, dễ hiểu
   - Giải thích đầy đủ các khái niệm
   - Cung cấp ví dụ cụ thể khi có thể
   - Trình bày có cấu trúc với các đoạn văn rõ ràng`

const mirrorInstruction = `Answer in the same language as the question, with a detailed, comprehensive and well-structured response.
   - Use natural, clear language
   - Explain concepts thoroughly
   - Give specific examples when possible
   - Structure the response in clear paragraphs`

var instructionSections = []struct {
	title string
	lines []string
}{
	{"LENGTH AND COMPREHENSIVENESS", []string{
		"Give a thorough, detailed answer, not a brief summary",
		"Aim for 300-500 words on complex questions and 150-300 on simple ones",
		"Elaborate on every relevant point in the context",
		"Never answer with a single sentence",
	}},
	{"STRUCTURE AND ORGANIZATION", []string{
		"Open with a short introduction of what the answer covers",
		"Give each major point its own paragraph; use lists for multiple items",
		"Use headings or bold text for key sections",
		"Close with a brief conclusion when it helps",
	}},
	{"DETAIL AND DEPTH", []string{
		"Include all relevant information from the context",
		"Synthesize sources that cover the same topic",
		"Explain how separate pieces of information relate",
	}},
	{"FORMATTING AND READABILITY", []string{
		"Keep paragraphs to 2-4 sentences",
		"Use bullet points or numbered lists for enumerations",
		"Separate major sections with blank lines",
		"Emphasize key terms with **bold** markdown",
	}},
	{"CITATIONS AND SOURCES", []string{
		`Attribute information to its source, e.g. "According to Source 1..."`,
		"Say so when several sources agree",
	}},
	{"COMPLETENESS", []string{
		"Address every part of the question",
		"Answer each sub-question explicitly",
	}},
	{"IMAGES AND VISUAL CONTENT", []string{
		"For questions about images, rely on the image descriptions and OCR text in the context",
		"Describe visual elements in detail when relevant",
	}},
	{"CLARITY AND PROFESSIONALISM", []string{
		"Write clearly and professionally",
		"Use the terminology of the documents and define technical terms",
	}},
	{"QUALITY CHECK", []string{
		"Before finishing, confirm the answer is long enough, complete, well structured, in the right language and grounded in the context",
	}},
}

// BuildPrompt assembles the generation prompt. The question is embedded verbatim.
func BuildPrompt(context, question string, lang Language) string {
	instruction := mirrorInstruction
	if lang == LanguageVietnamese {
		instruction = vietnameseInstruction
	}

	var sb strings.Builder
	sb.WriteString("You are an expert AI assistant specialized in document analysis and question answering. ")
	sb.WriteString("Provide detailed, comprehensive and well-structured answers based on the provided context.\n\n")
	sb.WriteString("Context from documents:\n")
	sb.WriteString(context)
	sb.WriteString("\n\nUser's question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nCRITICAL INSTRUCTIONS - FOLLOW THESE CAREFULLY:\n\n")

	fmt.Fprintf(&sb, "1. LANGUAGE REQUIREMENT: %s\n", instruction)
	sb.WriteString("   - Match the language of the question exactly and keep it throughout\n\n")

	for i, section := range instructionSections {
		fmt.Fprintf(&sb, "%d. %s:\n", i+2, section.title)
		for _, line := range section.lines {
			fmt.Fprintf(&sb, "   - %s\n", line)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("REMEMBER: The user expects a thorough, detailed response that fully answers the question. ")
	sb.WriteString("Do not give a brief summary. Be comprehensive, clear and well organized.\n")
	return sb.String()
}
