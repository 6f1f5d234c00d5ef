package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSONString_Valid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`
	jsonContent := `{"name": "test"}`

	err := ValidateJSONString(schemaContent, jsonContent)
	assert.NoError(t, err)
}

func TestValidateJSONString_Invalid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`
	jsonContent := `{"age": 30}`

	err := ValidateJSONString(schemaContent, jsonContent)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateJSONString_MalformedDocument(t *testing.T) {
	schemaContent := `{"type": "object"}`

	err := ValidateJSONString(schemaContent, "{ not json }")
	require.Error(t, err)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "name", Message: "is required"},
			{Field: "sort_order", Message: "must be a number"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "name")
	assert.Contains(t, errorMsg, "sort_order")
}

func TestValidatePromptDefinition(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantError bool
	}{
		{
			name: "complete definition",
			json: `{
				"name": "Detailed Summary",
				"description": "Full candidate brief",
				"type": "summary",
				"category": "single",
				"system_prompt": "You are a recruiter.",
				"user_prompt": "Candidate: {candidate_data}",
				"template": "<div></div>",
				"is_default": true,
				"enabled": true,
				"sort_order": 1
			}`,
			wantError: false,
		},
		{
			name: "minimal definition",
			json: `{
				"name": "Quick",
				"category": "single",
				"system_prompt": "sys",
				"user_prompt": "user"
			}`,
			wantError: false,
		},
		{
			name:      "missing prompts",
			json:      `{"name": "Broken", "category": "single"}`,
			wantError: true,
		},
		{
			name: "bad category",
			json: `{
				"name": "Broken",
				"category": "pair",
				"system_prompt": "sys",
				"user_prompt": "user"
			}`,
			wantError: true,
		},
		{
			name: "bad sort order type",
			json: `{
				"name": "Broken",
				"category": "multiple",
				"system_prompt": "sys",
				"user_prompt": "user",
				"sort_order": "first"
			}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePromptDefinition(tt.json)
			if tt.wantError {
				validationErr := &ValidationError{}
				require.ErrorAs(t, err, &validationErr)
				assert.Greater(t, len(validationErr.Errors), 0)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNoteSelection(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantError bool
	}{
		{
			name:      "selected note",
			json:      `{"selected_note_id": 42, "has_valid_interview": true, "reasoning": "matches role"}`,
			wantError: false,
		},
		{
			name:      "explicit null selection",
			json:      `{"selected_note_id": null, "has_valid_interview": false, "reasoning": "call logs only"}`,
			wantError: false,
		},
		{
			name:      "id omitted",
			json:      `{"has_valid_interview": false, "reasoning": "no notes"}`,
			wantError: false,
		},
		{
			name:      "missing verdict",
			json:      `{"selected_note_id": 42, "reasoning": "matches role"}`,
			wantError: true,
		},
		{
			name:      "id wrong type",
			json:      `{"selected_note_id": "42", "has_valid_interview": true, "reasoning": "x"}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNoteSelection(tt.json)
			if tt.wantError {
				require.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
