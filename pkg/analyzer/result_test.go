package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchFormExtraction(t *testing.T) {
	tests := []struct {
		name     string
		result   AnalysisResult
		want     *SearchForm
		detected bool
	}{
		{
			name:     "missing key",
			result:   AnalysisResult{"page_type": "homepage"},
			detected: false,
		},
		{
			name:     "explicit null",
			result:   AnalysisResult{"search_form": nil},
			detected: false,
		},
		{
			name:     "empty object",
			result:   AnalysisResult{"search_form": map[string]any{}},
			detected: false,
		},
		{
			name:     "not an object",
			result:   AnalysisResult{"search_form": "yes"},
			detected: false,
		},
		{
			name: "full form",
			result: AnalysisResult{"search_form": map[string]any{
				"action": "/search",
				"params": []any{"q", "lang"},
			}},
			want:     &SearchForm{Action: "/search", Params: []string{"q", "lang"}},
			detected: true,
		},
		{
			name: "non-string params stringified",
			result: AnalysisResult{"search_form": map[string]any{
				"action": "/search",
				"params": []any{float64(1), "q"},
			}},
			want:     &SearchForm{Action: "/search", Params: []string{"1", "q"}},
			detected: true,
		},
		{
			name: "action only",
			result: AnalysisResult{"search_form": map[string]any{
				"action": "/find",
			}},
			want:     &SearchForm{Action: "/find"},
			detected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form, detected := tt.result.SearchForm()
			require.Equal(t, tt.detected, detected)
			if tt.detected {
				assert.Equal(t, tt.want, form)
			} else {
				assert.Nil(t, form)
			}
		})
	}
}

func TestErrored(t *testing.T) {
	assert.True(t, ErrorResult("boom").Errored())
	assert.False(t, AnalysisResult{"page_type": "homepage"}.Errored())
}
