package gen

import (
	"fmt"
	"strconv"
	"strings"
)

// Interpreter scripts are generated per request, written as transient
// artifacts, and invoked as:
//
//	<interpreter> <scriptPath> <primarySubjectText> [secondarySubjectText] [typeSpecificArgs...]
//
// The provider API key reaches the script through its environment
// (GEMINI_API_KEY or ANTHROPIC_API_KEY), never through argv. The script
// prints exactly one JSON document to stdout; a markdown fence around it is
// tolerated by the parser.

const ingestPrompt = `You are an expert study assistant. Analyze the document text and extract the main educational topics.
Return a JSON array of objects, each with two keys:
- "topic": a short, descriptive name for the topic
- "content": a clear, concise summary of the key points, concepts, and formulas
Example:
[
  {"topic": "Topic Name 1", "content": "Summary of content for topic 1."},
  {"topic": "Topic Name 2", "content": "Summary of content for topic 2."}
]
Return ONLY the JSON array, no additional text or markdown formatting.`

const lessonPrompt = `You are an expert teacher. Create a clear, engaging micro-lesson on the given topic for a student learning it for the first time.
Return a JSON object with the following keys:
- "title": the lesson title
- "sections": array of {"heading", "content"} objects covering the topic step by step
- "common_mistakes": array of mistakes students often make
- "tips": array of short study tips
- "confidence": "low", "medium", or "high" - how well the provided context covers the topic
- "citations": array of source references drawn from the context (may be empty)
Return ONLY the JSON object, no additional text or markdown formatting.`

const examPrompt = `You are an expert exam creator. Generate a realistic mock exam covering the given topics proportionally, mixing question types.
Return a JSON array of question objects, each with:
- "id": a short unique identifier
- "type": "mcq", "short", or "problem"
- "difficulty": "easy", "medium", or "hard"
- "question": the question text
- "options": array of 4 options (mcq only)
- "marks": integer marks for the question
- "topic": which topic the question covers
- "hint": a short hint for the student
The marks of all questions should sum to the requested total.
Return ONLY the JSON array, no additional text or markdown formatting.`

const flashcardPrompt = `You are an expert study assistant. Create concise flashcards for the given topic.
Return a JSON array of objects, each with two keys:
- "front": a short question or prompt
- "back": the answer, brief enough to recall from memory
Create the requested number of cards, each covering a distinct aspect of the topic.
Return ONLY the JSON array, no additional text or markdown formatting.`

func promptFor(ct ContentType) string {
	switch ct {
	case ContentIngest:
		return ingestPrompt
	case ContentLesson:
		return lessonPrompt
	case ContentFlashcards:
		return flashcardPrompt
	default:
		return examPrompt
	}
}

// argLabels names the positional argv fields the script joins into its
// request, in order.
func argLabels(ct ContentType) []string {
	switch ct {
	case ContentIngest:
		return []string{"Document"}
	case ContentLesson:
		return []string{"Subject", "Context"}
	case ContentFlashcards:
		return []string{"Subject", "Context", "Number of cards"}
	default:
		return []string{"Subject", "Context", "Exam type", "Duration (minutes)", "Total marks", "Difficulty"}
	}
}

// buildScript renders the Python source for one invocation. The subject
// texts arrive via argv at run time; only the static prompt and provider
// plumbing are baked into the script.
func buildScript(provider, model string, ct ContentType) []byte {
	prompt := promptFor(ct)

	var b strings.Builder
	b.WriteString("#!/usr/bin/env python3\n")
	fmt.Fprintf(&b, "\"\"\"StudyHall %s generation script (transient, one request).\"\"\"\n", ct)
	b.WriteString("import json\nimport os\nimport sys\n\n")
	fmt.Fprintf(&b, "PROMPT = %s\n\n", pyString(prompt))

	fmt.Fprintf(&b, `def build_request():
    parts = [PROMPT]
    labels = %s
    for i, arg in enumerate(sys.argv[1:]):
        label = labels[i] if i < len(labels) else "Input"
        parts.append(label + ":\n" + arg)
    return "\n\n".join(parts)

`, pyStringList(argLabels(ct)))

	switch provider {
	case "anthropic":
		fmt.Fprintf(&b, anthropicBody, model)
	default:
		fmt.Fprintf(&b, geminiBody, model)
	}

	return []byte(b.String())
}

const geminiBody = `def main():
    import google.generativeai as genai
    genai.configure(api_key=os.environ["GEMINI_API_KEY"])
    model = genai.GenerativeModel(%q)
    response = model.generate_content(build_request())
    sys.stdout.write(response.text)

if __name__ == "__main__":
    main()
`

const anthropicBody = `def main():
    import urllib.request
    body = json.dumps({
        "model": %q,
        "max_tokens": 4000,
        "messages": [{"role": "user", "content": build_request()}],
    }).encode("utf-8")
    req = urllib.request.Request(
        "https://api.anthropic.com/v1/messages",
        data=body,
        headers={
            "x-api-key": os.environ["ANTHROPIC_API_KEY"],
            "anthropic-version": "2023-06-01",
            "content-type": "application/json",
        },
    )
    with urllib.request.urlopen(req, timeout=90) as resp:
        payload = json.load(resp)
    sys.stdout.write(payload["content"][0]["text"])

if __name__ == "__main__":
    main()
`

// pyStringList renders items as a Python list of double-quoted strings.
func pyStringList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = strconv.Quote(it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// pyString renders s as a Python triple-quoted string literal.
func pyString(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"""`, `\"\"\"`)
	return `"""` + escaped + `"""`
}

// buildArgs assembles the positional argv for a request, after the script
// path: primary subject text, optional secondary context, then type-specific
// arguments.
func buildArgs(req GenerationRequest) []string {
	p := req.Parameters
	switch req.ContentType {
	case ContentIngest:
		return []string{req.ContextPayload}
	case ContentLesson:
		return []string{p.TopicName, req.ContextPayload}
	case ContentFlashcards:
		return []string{p.TopicName, req.ContextPayload, strconv.Itoa(p.CardCount)}
	default: // exam
		return []string{
			strings.Join(p.Topics, ", "),
			req.ContextPayload,
			p.ExamType,
			strconv.Itoa(p.DurationMinutes),
			strconv.Itoa(p.TotalMarks),
			p.Difficulty,
		}
	}
}

// credentialEnvVar names the environment variable carrying the provider key.
func credentialEnvVar(provider string) string {
	if provider == "anthropic" {
		return "ANTHROPIC_API_KEY"
	}
	return "GEMINI_API_KEY"
}
