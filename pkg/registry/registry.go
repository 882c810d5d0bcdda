// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	apperrors "school-activities/internal/common/errors"
	"school-activities/internal/common/validation"
)

//go:embed default_activities.json
var defaultSeed []byte

var (
	validatorOnce sync.Once
	validator     *validation.Validator
	validatorErr  error
)

func seedValidator() (*validation.Validator, error) {
	validatorOnce.Do(func() {
		validator, validatorErr = validation.NewValidator(seedSchema)
	})
	return validator, validatorErr
}

// LoadRegistry reads and validates a seed file.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewRegistryLoadFailedError(path, err)
	}
	reg, err := Parse(data)
	if err != nil {
		if _, ok := apperrors.AsStandardError(err); ok {
			return nil, err
		}
		return nil, apperrors.NewRegistryLoadFailedError(path, err)
	}
	return reg, nil
}

// Default returns a fresh copy of the embedded Mergington High School seed.
func Default() *ActivityRegistry {
	reg, err := Parse(defaultSeed)
	if err != nil {
		panic(fmt.Sprintf("embedded activity seed is invalid: %v", err))
	}
	return reg
}

// Parse decodes and validates a seed document.
func Parse(data []byte) (*ActivityRegistry, error) {
	v, err := seedValidator()
	if err != nil {
		return nil, err
	}

	result, err := v.ValidateBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if !result.Valid {
		return nil, apperrors.NewRegistryInvalidError(result.GetErrorMessages())
	}

	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if err := Validate(&reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate runs the schema plus the checks a schema cannot express:
// unique activity names.
func Validate(reg *ActivityRegistry) error {
	v, err := seedValidator()
	if err != nil {
		return err
	}

	var problems []string
	result, err := v.ValidateValue(reg)
	if err != nil {
		return fmt.Errorf("validate registry: %w", err)
	}
	problems = append(problems, result.GetErrorMessages()...)

	names := make(map[string]bool, len(reg.Activities))
	for _, a := range reg.Activities {
		if names[a.Name] {
			problems = append(problems, fmt.Sprintf("duplicate activity name: %s", a.Name))
		}
		names[a.Name] = true
	}

	if len(problems) > 0 {
		return apperrors.NewRegistryInvalidError(problems)
	}
	return nil
}

// OverCapacity lists activities whose seed roster already exceeds max_participants.
// It is advisory: the service still starts.
func OverCapacity(reg *ActivityRegistry) []string {
	var names []string
	for _, a := range reg.Activities {
		if len(a.Participants) > a.MaxParticipants {
			names = append(names, a.Name)
		}
	}
	return names
}

// Save writes the registry as indented JSON.
func Save(reg *ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write registry %s: %w", path, err)
	}
	return nil
}
