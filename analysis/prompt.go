package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MaxResumeRunes bounds how much resume text is sent to the model.
const MaxResumeRunes = 2500

const promptTemplate = `You are an interviewer. Analyze how well the resume matches the job description.
Resume: %s
Job description: %s
Reply strictly with plain JSON (no Markdown) in this shape:
{
    "candidate_info": { "name": "full name", "email": "email", "education": "highest degree", "years_exp": "years of experience", "skills": ["skill1"] },
    "match_analysis": { "score": 85, "summary": "assessment", "missing_skills": ["missing1"], "keyword_match": ["matched1"] }
}`

// BuildPrompt renders the analysis prompt for a resume and job description.
func BuildPrompt(resume, jobDescription string) string {
	return fmt.Sprintf(promptTemplate, truncateRunes(resume, MaxResumeRunes), jobDescription)
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ParseResponse decodes a model reply into a Result, tolerating Markdown
// code fences around the JSON.
func ParseResponse(content string) (Result, error) {
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	content = strings.TrimSpace(content)

	var res Result
	if err := json.Unmarshal([]byte(content), &res); err != nil {
		return Result{}, fmt.Errorf("analysis: decode model reply: %w", err)
	}
	return res, nil
}
