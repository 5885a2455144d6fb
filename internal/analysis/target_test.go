package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want string
	}{
		{"database server crashed", "database"},
		{"postgres replica lag", "database"},
		{"db connections exhausted", "database"},
		{"redis evictions", "cache"},
		{"cache hit ratio dropped", "cache"},
		{"payment-api latency", "api"},
		{"auth-service returns 500", "auth-service"},
		{"login failures spiking", "auth-service"},
		{"rapid growth", ""},        // "api" inside a word does not count
		{"dbx cluster warning", ""}, // neither does "db"
		{"", ""},
	}
	for _, tt := range tests {
		got := InferTarget(tt.text)
		if tt.want == "" {
			assert.Nil(t, got, tt.text)
			continue
		}
		if assert.NotNil(t, got, tt.text) {
			assert.Equal(t, tt.want, *got, tt.text)
		}
	}
}

func TestExtractObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, true},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"prose around", `Sure! {"a":{"b":2}} hope that helps`, `{"a":{"b":2}}`, true},
		{"braces in strings", `{"a":"}{"}`, `{"a":"}{"}`, true},
		{"escaped quote", `{"a":"say \"}\""}`, `{"a":"say \"}\""}`, true},
		{"none", `no json here`, "", false},
		{"unbalanced", `{"a":1`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := extractObject(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
