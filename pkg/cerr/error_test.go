package cerr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/agentsync/pkg/storage"
)

func TestNewError_StackOnlyForServerErrors(t *testing.T) {
	internal := NewError(Internal, "boom", nil)
	assert.NotEmpty(t, internal.Stack)

	notFound := NewError(NotFound, "missing", nil)
	assert.Empty(t, notFound.Stack)
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "[not_found] missing", NewError(NotFound, "missing", nil).Error())
	assert.Equal(t, "[data_loss] bad: eof", NewError(DataLoss, "bad", errors.New("eof")).Error())
}

func TestIsCodeAndCodeOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewError(DataLoss, "corrupted", nil))
	assert.True(t, IsCode(err, DataLoss))
	assert.False(t, IsCode(err, Internal))
	assert.Equal(t, DataLoss, CodeOf(err))
	assert.Equal(t, Unknown, CodeOf(errors.New("plain")))
	assert.Equal(t, OK, CodeOf(nil))
}

func TestWrapStorageReadError(t *testing.T) {
	err := WrapStorageReadError("registry", fmt.Errorf("x: %w", storage.ErrNotFound))
	assert.True(t, IsCode(err, NotFound))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = WrapStorageReadError("registry", errors.New("permission denied"))
	assert.True(t, IsCode(err, Internal))
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "coded", err: NewError(InvalidArgument, "bad id", nil), status: http.StatusBadRequest, code: "invalid_argument"},
		{name: "foreign", err: errors.New("oops"), status: http.StatusInternalServerError, code: "unknown"},
		{name: "canceled", err: context.Canceled, status: 499, code: "canceled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)

			var body httpError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}
