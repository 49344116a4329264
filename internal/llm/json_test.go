package llm

import "testing"

type gapResult struct {
	FoundGap bool   `json:"found_gap"`
	Rule     string `json:"rule"`
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
		want    gapResult
	}{
		{
			name: "bare JSON",
			text: `{"found_gap": true, "rule": "inject floral pattern"}`,
			want: gapResult{FoundGap: true, Rule: "inject floral pattern"},
		},
		{
			name: "JSON with surrounding prose",
			text: "Sure, here is the result:\n{\"found_gap\": true, \"rule\": \"inject floral pattern\"}\nLet me know if you need more.",
			want: gapResult{FoundGap: true, Rule: "inject floral pattern"},
		},
		{
			name: "markdown fenced",
			text: "```json\n{\"found_gap\": false, \"rule\": \"\"}\n```",
			want: gapResult{FoundGap: false},
		},
		{
			name: "braces inside string literals",
			text: `prefix {"found_gap": true, "rule": "use {braces} literally"} suffix`,
			want: gapResult{FoundGap: true, Rule: "use {braces} literally"},
		},
		{
			name:    "no JSON at all",
			text:    "I could not find any gap between the two listings.",
			wantErr: true,
		},
		{
			name:    "empty",
			text:    "",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			text:    `{"found_gap": true, "rule": "trunca`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got gapResult
			err := ExtractJSON(tt.text, &got)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSON failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractJSON_NestedObjects(t *testing.T) {
	text := `Result: {"outer": {"inner": 1}, "rule": "keep nesting"} trailing {"second": true}`

	var got map[string]interface{}
	if err := ExtractJSON(text, &got); err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if _, ok := got["outer"]; !ok {
		t.Error("expected the first balanced object, with its nested content")
	}
	if _, ok := got["second"]; ok {
		t.Error("should not have captured the second object")
	}
}
