package hooks

import "testing"

var personSchema = []byte(`{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"}
	}
}`)

func TestSchemaHook(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		input   interface{}
		wantErr bool
	}{
		{name: "valid, non-strict", strict: false, input: map[string]interface{}{"name": "ada"}},
		{name: "valid, strict", strict: true, input: map[string]interface{}{"name": "ada"}},
		{name: "invalid, non-strict accepts anyway", strict: false, input: map[string]interface{}{}},
		{name: "invalid, strict rejects", strict: true, input: map[string]interface{}{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := SchemaHook("person", personSchema, tt.strict)
			err := hook(map[string]interface{}{"person": tt.input})
			if tt.wantErr && err == nil {
				t.Fatal("expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSchemaHook_MissingInput(t *testing.T) {
	hook := SchemaHook("person", personSchema, true)
	if err := hook(map[string]interface{}{}); err == nil {
		t.Fatal("expected an error for a missing input")
	}
}
