package insight

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ignite/adlens/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponseFencedWithProse(t *testing.T) {
	reply := "Sure! Here is my analysis:\n```json\n" +
		`{"insights":[{"title":"Cut Facebook spend","description":"ROAS 0.6","category":"Budget","priority":"HIGH","platform":"facebook","recommendation":"Pause set B","impact":"Save 120"}]}` +
		"\n```\nLet me know if you need more."

	items, err := ParseResponse(reply, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Cut Facebook spend", items[0].Title)
	assert.Equal(t, domain.InsightBudget, items[0].Category)
	assert.Equal(t, domain.PriorityHigh, items[0].Priority)
	assert.Equal(t, domain.PlatformFacebook, items[0].Platform)
	assert.Equal(t, "Save 120", items[0].Impact)
}

func TestParseResponseNormalizes(t *testing.T) {
	reply := `{"insights":[
		{"title":"A","category":"branding","priority":"urgent","platform":"tiktok","impact":15.5},
		{"title":"   ","category":"seo"},
		{"title":"B","category":"seo","priority":"low","platform":"google_search_console"}
	]}`

	items, err := ParseResponse(reply, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domain.InsightPerformance, items[0].Category)
	assert.Equal(t, domain.PriorityMedium, items[0].Priority)
	assert.Equal(t, domain.Platform(""), items[0].Platform)
	assert.Equal(t, "15.5", items[0].Impact)
	assert.Equal(t, domain.InsightSEO, items[1].Category)
}

func TestParseResponseBareArray(t *testing.T) {
	items, err := ParseResponse(`Result: [{"title":"Only one","priority":"low"}]`, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.PriorityLow, items[0].Priority)
}

func TestParseResponseSkipsBracketedProse(t *testing.T) {
	reply := "Based on the data [last 30 days], here is my analysis:\n" +
		`{"insights":[{"title":"Cut Meta spend","category":"budget","priority":"high"}]}` +
		"\nSee [1] for details."

	items, err := ParseResponse(reply, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Cut Meta spend", items[0].Title)
	assert.Equal(t, domain.PriorityHigh, items[0].Priority)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"object", `x {"insights":[]} y`, `{"insights":[]}`},
		{"array after prose brackets", `[note] [{"title":"a"}]`, `[{"title":"a"}]`},
		{"object without insights then array", `{"summary":"ok"} [{"title":"a"}]`, `[{"title":"a"}]`},
		{"numbers only", `[1, 2, 3]`, ""},
		{"nothing", "no data", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestParseResponseCaps(t *testing.T) {
	var parts []string
	for i := 0; i < 15; i++ {
		parts = append(parts, fmt.Sprintf(`{"title":"insight %d"}`, i))
	}
	items, err := ParseResponse(`{"insights":[`+strings.Join(parts, ",")+`]}`, 0)
	require.NoError(t, err)
	assert.Len(t, items, DefaultMaxInsights)
}

func TestParseResponseFailures(t *testing.T) {
	for name, reply := range map[string]string{
		"no json":     "I could not analyse this data.",
		"empty list":  `{"insights":[]}`,
		"only blanks": `{"insights":[{"title":""}]}`,
		"broken":      `{"insights":[{"title":"x"`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseResponse(reply, 10)
			assert.Error(t, err)
		})
	}
}
