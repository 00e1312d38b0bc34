package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind discriminates success results from error results.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindSuccess || k == KindError
}

// Summary used for error results whose cause is a malformed model reply.
const SummaryParseFailure = "failed to parse analysis"

// CandidateInfo is the candidate profile extracted from the resume.
type CandidateInfo struct {
	Name      Text       `json:"name"`
	Email     Text       `json:"email"`
	Education Text       `json:"education"`
	YearsExp  Text       `json:"years_exp"`
	Skills    StringList `json:"skills"`
}

// MatchAnalysis scores the resume against the job description.
type MatchAnalysis struct {
	Score         Score      `json:"score"`
	Summary       Text       `json:"summary"`
	MissingSkills StringList `json:"missing_skills,omitempty"`
	KeywordMatch  StringList `json:"keyword_match,omitempty"`
}

// Text is a string field that also accepts a JSON number or boolean, as in
// "years_exp": 5.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case isNull(data):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("analysis: expected text, got %s", data)
	default:
		*t = Text(data)
	}
	return nil
}

// StringList is a list field that also accepts a single comma-separated
// string, as in "skills": "Go, Python".
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []Text
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(StringList, len(items))
		for i, item := range items {
			out[i] = string(item)
		}
		*l = out
		return nil
	}

	var s Text
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	var out StringList
	for _, part := range strings.Split(string(s), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*l = out
	return nil
}

// Score is a 0-100 match score. Models occasionally emit it as a string, a
// percentage or a float; decoding rounds to the nearest integer and clamps
// to the valid range.
type Score int

func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		*s = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		data = []byte(strings.TrimSuffix(strings.TrimSpace(str), "%"))
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("analysis: invalid score %q", data)
	}
	*s = Score(min(max(math.Round(f), 0), 100))
	return nil
}

// Result is the outcome of one analysis. It is a tagged union: Kind selects
// whether the success fields or Error are meaningful.
//
// A Result decoded from JSON keeps the object it was decoded from and
// re-encodes it unchanged, apart from the "error" key, so fields the typed
// view does not know about survive caching. CandidateInfo and MatchAnalysis
// are a best-effort read view of that object and are nil when the model's
// section does not fit them.
type Result struct {
	Kind          Kind
	CandidateInfo *CandidateInfo
	MatchAnalysis *MatchAnalysis
	Error         string

	raw map[string]json.RawMessage
}

// NewErrorResult builds an error-kind result with a zero score.
func NewErrorResult(msg, summary string) Result {
	return Result{
		Kind:          KindError,
		Error:         msg,
		MatchAnalysis: &MatchAnalysis{Score: 0, Summary: Text(summary)},
	}
}

// IsError reports whether r is an error-kind result.
func (r Result) IsError() bool {
	return r.Kind == KindError
}

// MarshalJSON renders the client-facing shape:
// {"candidate_info":{...},"match_analysis":{...},"error":"..."}.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		out := make(map[string]json.RawMessage, len(r.raw)+1)
		for k, v := range r.raw {
			out[k] = v
		}
		delete(out, "error")
		if r.Kind == KindError {
			msg, err := json.Marshal(r.Error)
			if err != nil {
				return nil, err
			}
			out["error"] = msg
		}
		return json.Marshal(out)
	}

	out := make(map[string]any, 3)
	if r.CandidateInfo != nil {
		out["candidate_info"] = r.CandidateInfo
	}
	if r.MatchAnalysis != nil {
		out["match_analysis"] = r.MatchAnalysis
	}
	if r.Kind == KindError {
		out["error"] = r.Error
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts any JSON object. The presence of a top-level "error"
// key marks the result as error-kind.
func (r *Result) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("analysis: result must be a JSON object")
	}

	res := Result{Kind: KindSuccess, raw: fields}

	if raw, ok := fields["candidate_info"]; ok && !isNull(raw) {
		var ci CandidateInfo
		if json.Unmarshal(raw, &ci) == nil {
			res.CandidateInfo = &ci
		}
	}
	if raw, ok := fields["match_analysis"]; ok && !isNull(raw) {
		var ma MatchAnalysis
		if json.Unmarshal(raw, &ma) == nil {
			res.MatchAnalysis = &ma
		}
	}
	if raw, ok := fields["error"]; ok {
		res.Kind = KindError
		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil {
			msg = string(raw)
		}
		res.Error = msg
	}

	*r = res
	return nil
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
