package toolresult

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validationf("width", "must be positive"), KindValidation},
		{"wrapped validation", fmt.Errorf("decode: %w", Validationf("x", "bad")), KindValidation},
		{"state", ErrNoDocument, KindState},
		{"host", &HostAutomationError{Err: errors.New("rejected")}, KindHostAutomation},
		{"internal", &InternalError{Panic: "boom"}, KindInternal},
		{"plain", errors.New("surprise"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `invalid argument "width": must be positive`, Validationf("width", "must be positive").Error())
	assert.Equal(t, "invalid arguments: malformed", (&ValidationError{Message: "malformed"}).Error())
	assert.Equal(t, "host automation failed: dialog open", (&HostAutomationError{Err: errors.New("dialog open")}).Error())
	assert.Equal(t, "internal error: boom", (&InternalError{Panic: "boom"}).Error())
	assert.Contains(t, ErrNoDocument.Error(), "create_document")
}

func TestFromErrorPreservesMessage(t *testing.T) {
	res := FromError("place_image", &HostAutomationError{Err: errors.New("link missing")})

	assert.False(t, res.Success)
	assert.Equal(t, "place_image", res.Operation)
	assert.Equal(t, "host automation failed: link missing", res.Result)
}

func TestResultJSONShape(t *testing.T) {
	data, err := json.Marshal(OK("get_document_info", map[string]int{"pageCount": 2}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"operation":"get_document_info","result":{"pageCount":2}}`, string(data))

	data, err = json.Marshal(Result{Success: false, Result: "nope"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"result":"nope"}`, string(data))
}
