package schemas

import _ "embed"

//go:embed prompt_definition.schema.json
var promptDefinitionSchema string

//go:embed note_selection.schema.json
var noteSelectionSchema string

// ValidatePromptDefinition checks a prompt definition document (embedded
// seeds, file store entries) against the prompt schema.
func ValidatePromptDefinition(jsonContent string) error {
	return validateJSONString("prompt_definition", promptDefinitionSchema, jsonContent)
}

// ValidateNoteSelection checks a note-selection LLM response against the
// selection schema before it is trusted.
func ValidateNoteSelection(jsonContent string) error {
	return validateJSONString("note_selection", noteSelectionSchema, jsonContent)
}
