package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompiler_Prepare(t *testing.T) {
	compiler := NewCompilerWithCache(64)
	ctx := context.Background()

	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"name": map[string]interface{}{
				"type": "string",
			},
		},
		"required": []string{"name"},
	}

	err := compiler.Prepare(ctx, schema)
	require.NoError(t, err)
}

func TestCompiler_Validate(t *testing.T) {
	compiler := NewCompilerWithCache(64)
	ctx := context.Background()

	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"name": map[string]interface{}{
				"type": "string",
			},
		},
		"required": []string{"name"},
	}

	err := compiler.Prepare(ctx, schema)
	require.NoError(t, err)

	err = compiler.Validate(ctx, schema, map[string]interface{}{"name": "test"})
	assert.NoError(t, err)

	err = compiler.Validate(ctx, schema, map[string]interface{}{})
	assert.Error(t, err)
}

func TestValidator_Submission(t *testing.T) {
	v := NewValidator()
	ctx := context.Background()

	valid := map[string]interface{}{
		"issue_description":        "Screen cracked after a drop",
		"device_type":              "phone",
		"device_model":             "Pixel 8",
		"preferred_contact_method": "email",
		"contact_email":            "customer@example.com",
	}
	assert.NoError(t, v.ValidateSubmission(ctx, valid))

	missing := map[string]interface{}{
		"issue_description": "Screen cracked",
		"device_type":       "phone",
	}
	assert.Error(t, v.ValidateSubmission(ctx, missing))

	badContact := map[string]interface{}{
		"issue_description":        "Screen cracked",
		"device_type":              "phone",
		"device_model":             "Pixel 8",
		"preferred_contact_method": "carrier-pigeon",
	}
	assert.Error(t, v.ValidateSubmission(ctx, badContact))
}

func TestValidator_SelectedProducts(t *testing.T) {
	v := NewValidator()
	ctx := context.Background()

	valid := map[string]interface{}{
		"prod-1": map[string]interface{}{"quantity": 2, "note": "OEM part"},
		"prod-2": map[string]interface{}{"quantity": 1},
	}
	assert.NoError(t, v.ValidateSelectedProducts(ctx, valid))

	noQuantity := map[string]interface{}{
		"prod-1": map[string]interface{}{"note": "missing qty"},
	}
	assert.Error(t, v.ValidateSelectedProducts(ctx, noQuantity))
}

func TestValidator_TaskLines(t *testing.T) {
	v := NewValidator()
	ctx := context.Background()

	valid := []interface{}{
		map[string]interface{}{"description": "Replace screen", "cost": 120.0},
		map[string]interface{}{"description": "Diagnostics"},
	}
	assert.NoError(t, v.ValidateTaskLines(ctx, valid))

	invalid := []interface{}{
		map[string]interface{}{"cost": 50.0},
	}
	assert.Error(t, v.ValidateTaskLines(ctx, invalid))

	negativeCost := []interface{}{
		map[string]interface{}{"description": "Replace screen", "cost": -5.0},
	}
	assert.Error(t, v.ValidateTaskLines(ctx, negativeCost))
}
