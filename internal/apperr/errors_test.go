package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationError_SortedFields(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"subject": "required", "deadline": "bad date"}}
	require.Equal(t, "validation failed: deadline: bad date; subject: required", err.Error())

	var verr *ValidationError
	require.True(t, errors.As(fmt.Errorf("create: %w", Invalid("name", "taken")), &verr))
	require.Equal(t, map[string]string{"name": "taken"}, verr.Fields)
}
