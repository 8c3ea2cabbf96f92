package analyzer

import "fmt"

// AnalysisResult is the model's classification of one page, kept as the raw
// decoded JSON object. The model's output is not schema-validated beyond
// being parseable: a well-formed object with unexpected keys is stored and
// reported exactly as received.
type AnalysisResult map[string]any

// ErrorResult builds the degraded result recorded when analysis fails.
func ErrorResult(message string) AnalysisResult {
	return AnalysisResult{"error": message}
}

// Errored reports whether this result is a degraded error entry.
func (r AnalysisResult) Errored() bool {
	_, ok := r["error"]
	return ok
}

// SearchForm describes a detected search form: the form's action target and
// its parameter names. Only the first parameter is used operationally, as
// the name attribute of the input to drive; the rest are descriptive.
type SearchForm struct {
	Action string   `json:"action"`
	Params []string `json:"params"`
}

// SearchForm extracts the detected search form, if any. A missing, null, or
// empty search_form value means no form was detected. Non-string parameter
// entries are stringified rather than rejected.
func (r AnalysisResult) SearchForm() (*SearchForm, bool) {
	raw, ok := r["search_form"]
	if !ok || raw == nil {
		return nil, false
	}

	obj, ok := raw.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, false
	}

	form := &SearchForm{}
	if action, ok := obj["action"].(string); ok {
		form.Action = action
	}
	if params, ok := obj["params"].([]any); ok {
		for _, p := range params {
			if s, ok := p.(string); ok {
				form.Params = append(form.Params, s)
			} else {
				form.Params = append(form.Params, fmt.Sprintf("%v", p))
			}
		}
	}

	return form, true
}
