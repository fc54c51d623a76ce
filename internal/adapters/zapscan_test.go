package adapters

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/sentinel/api/schemas"
)

func buildZAPDoc(riskCode, confidence string) []byte {
	return []byte(fmt.Sprintf(`{
		"site": [{
			"@name": "https://example.test",
			"@host": "example.test",
			"@port": "443",
			"alerts": [{
				"alert": "X-Frame-Options Header Not Set",
				"pluginid": "10020",
				"riskcode": %q,
				"confidence": %q,
				"cweid": "1021",
				"desc": "<p>The response does not include an X-Frame-Options header &amp; can be framed.</p>",
				"solution": "<p>Set the header.</p>",
				"instances": [{"uri": "https://example.test/login"}]
			}]
		}]
	}`, riskCode, confidence))
}

func TestZAPAdapter_RiskCodeMapping(t *testing.T) {
	adapter := &zapAdapter{}

	tests := []struct {
		riskCode string
		expected schemas.Severity
	}{
		{"0", schemas.SeverityInformational},
		{"1", schemas.SeverityLow},
		{"2", schemas.SeverityMedium},
		{"3", schemas.SeverityHigh},
		// Unparseable codes default to medium.
		{"banana", schemas.SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.riskCode, func(t *testing.T) {
			findings, err := adapter.Parse(buildZAPDoc(tt.riskCode, "2"))
			require.NoError(t, err)
			require.Len(t, findings, 1)
			assert.Equal(t, tt.expected, findings[0].Severity)
			// A dynamic-scan finding can never be critical.
			assert.NotEqual(t, schemas.SeverityCritical, findings[0].Severity)
		})
	}
}

func TestZAPAdapter_HTMLStrippedAndConfidenceDisplayed(t *testing.T) {
	adapter := &zapAdapter{}
	findings, err := adapter.Parse(buildZAPDoc("2", "3"))
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.NotContains(t, f.Message, "<p>")
	assert.NotContains(t, f.Message, "&amp;")
	assert.Contains(t, f.Message, "can be framed")
	assert.Contains(t, f.Message, "(Confidence: High)")
	assert.Contains(t, f.Message, "Solution: Set the header.")
	assert.Equal(t, "example.test:443", f.Location)
	assert.Equal(t, "CWE-1021", f.VulnerabilityID)
}

func TestZAPAdapter_ConfidenceNeverAffectsSeverity(t *testing.T) {
	adapter := &zapAdapter{}
	for _, confidence := range []string{"0", "1", "2", "3"} {
		findings, err := adapter.Parse(buildZAPDoc("1", confidence))
		require.NoError(t, err)
		require.Len(t, findings, 1)
		assert.Equal(t, schemas.SeverityLow, findings[0].Severity)
	}
}

func TestZAPAdapter_MalformedDocument(t *testing.T) {
	adapter := &zapAdapter{}
	_, err := adapter.Parse([]byte(`{"site": "not-a-list"}`))
	require.Error(t, err)
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain text untouched", "plain text", "plain text"},
		{"Tags removed", "<p>hello <b>world</b></p>", "hello world"},
		{"Entities decoded", "a &amp; b &lt;ok&gt;", "a & b <ok>"},
		{"Whitespace collapsed", "<p>a</p>\n\n<p>b</p>", "a b"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripHTML(tt.input))
		})
	}
}
