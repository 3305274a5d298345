package schema

import "context"

// Built-in payload schemas for the repair workflow. These are fixed at build
// time; the compiler cache still pays off because every submission and every
// conversion validates against them.

// SubmissionSchema validates the customer-facing repair request form.
var SubmissionSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"title":             map[string]interface{}{"type": "string", "maxLength": 200},
		"issue_description": map[string]interface{}{"type": "string", "minLength": 1},
		"device_type":       map[string]interface{}{"type": "string", "minLength": 1},
		"device_model":      map[string]interface{}{"type": "string", "minLength": 1},
		"serial_number":     map[string]interface{}{"type": "string"},
		"preferred_contact_method": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"email", "phone", "sms"},
		},
		"contact_name":  map[string]interface{}{"type": "string"},
		"contact_email": map[string]interface{}{"type": "string"},
		"contact_phone": map[string]interface{}{"type": "string"},
	},
	"required": []interface{}{
		"issue_description", "device_type", "device_model", "preferred_contact_method",
	},
}

// SelectedProductsSchema validates the product map an operator attaches to a
// request before conversion: product id -> {quantity, note}.
var SelectedProductsSchema = map[string]interface{}{
	"type": "object",
	"additionalProperties": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"quantity": map[string]interface{}{"type": "integer", "minimum": 0},
			"note":     map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"quantity"},
	},
}

// TaskLinesSchema validates the note lines a technician turns into tasks.
var TaskLinesSchema = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"description": map[string]interface{}{"type": "string", "minLength": 1},
			"cost":        map[string]interface{}{"type": "number", "minimum": 0},
			"assignee_id": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"description"},
	},
}

// Validator wraps the compiler with the built-in payload schemas.
type Validator struct {
	compiler *Compiler
}

func NewValidator() *Validator {
	return &Validator{compiler: NewCompilerWithCache(16)}
}

func (v *Validator) ValidateSubmission(ctx context.Context, payload map[string]interface{}) error {
	return v.compiler.Validate(ctx, SubmissionSchema, payload)
}

func (v *Validator) ValidateSelectedProducts(ctx context.Context, payload map[string]interface{}) error {
	return v.compiler.Validate(ctx, SelectedProductsSchema, payload)
}

func (v *Validator) ValidateTaskLines(ctx context.Context, payload []interface{}) error {
	return v.compiler.Validate(ctx, TaskLinesSchema, payload)
}
