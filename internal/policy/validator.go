package policy

import (
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// ValidationError describes one problem found in a policy file.
type ValidationError struct {
	File    string
	Path    string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path != "" {
		return e.File + ": " + e.Path + ": " + e.Message
	}
	return e.File + ": " + e.Message
}

// Validator checks policy files against the JSON schema plus structural
// rules the schema cannot express.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator creates a validator from the given schema file.
func NewValidator(schemaPath string) (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	schema, err := compiler.Compile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidateFile validates one policy file and returns every problem found.
func (v *Validator) ValidateFile(path string) []ValidationError {
	data, err := os.ReadFile(path)
	if err != nil {
		return []ValidationError{{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}}
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []ValidationError{{File: path, Message: fmt.Sprintf("failed to parse YAML: %v", err)}}
	}

	var errors []ValidationError

	if err := v.schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			errors = append(errors, extractSchemaErrors(path, validationErr)...)
		} else {
			errors = append(errors, ValidationError{File: path, Message: err.Error()})
		}
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		errors = append(errors, ValidationError{File: path, Message: fmt.Sprintf("failed to decode policies: %v", err)})
		return errors
	}

	errors = append(errors, validateStructure(path, f.Policies)...)
	return errors
}

// extractSchemaErrors converts JSON schema validation errors to ValidationErrors.
func extractSchemaErrors(file string, err *jsonschema.ValidationError) []ValidationError {
	var errors []ValidationError

	path := strings.Join(err.InstanceLocation, ".")
	if path == "" {
		path = "(root)"
	}

	errors = append(errors, ValidationError{
		File:    file,
		Path:    path,
		Message: err.Error(),
	})

	for _, cause := range err.Causes {
		errors = append(errors, extractSchemaErrors(file, cause)...)
	}

	return errors
}

// validateStructure applies rules beyond the JSON schema: unique IDs,
// known operators and actions, known signal keys, and the presence of a
// catch-all fallback. The engine would still synthesize an ALLOW when no
// policy matches, but a ruleset relying on that fallback is treated as a
// configuration error rather than silently permissive.
func validateStructure(file string, policies []Policy) []ValidationError {
	var errors []ValidationError

	known := make(map[string]struct{}, len(SignalNames))
	for _, name := range SignalNames {
		known[name] = struct{}{}
	}

	idSeen := make(map[string]int)
	haveCatchAll := false

	for i, p := range policies {
		loc := fmt.Sprintf("policies[%d]", i)

		if prev, exists := idSeen[p.ID]; exists {
			errors = append(errors, ValidationError{
				File:    file,
				Path:    loc + ".id",
				Message: fmt.Sprintf("duplicate ID %q (also at policies[%d])", p.ID, prev),
			})
		} else {
			idSeen[p.ID] = i
		}

		if !ValidAction(p.Action) {
			errors = append(errors, ValidationError{
				File:    file,
				Path:    loc + ".action",
				Message: fmt.Sprintf("invalid action %q", p.Action),
			})
		}

		for key, cond := range p.Conditions {
			if _, ok := known[key]; !ok {
				errors = append(errors, ValidationError{
					File:    file,
					Path:    fmt.Sprintf("%s.conditions.%s", loc, key),
					Message: fmt.Sprintf("unknown signal %q", key),
				})
			}
			if _, err := ParseOperator(string(cond.Operator)); err != nil {
				errors = append(errors, ValidationError{
					File:    file,
					Path:    fmt.Sprintf("%s.conditions.%s.operator", loc, key),
					Message: err.Error(),
				})
			}
		}

		if p.CatchAll() {
			haveCatchAll = true
		}
	}

	if !haveCatchAll {
		errors = append(errors, ValidationError{
			File:    file,
			Message: "no catch-all policy (empty conditions) defined; add a lowest-priority fallback",
		})
	}

	return errors
}
