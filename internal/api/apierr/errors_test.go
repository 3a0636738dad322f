package apierr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gameroom/internal/model"
)

func TestWriteErrorMapsSentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{model.ErrRoomFull, http.StatusConflict, CodeRoomFull},
		{model.ErrNotInRoom, http.StatusForbidden, CodeNotInRoom},
		{model.ErrRoomAbandoned, http.StatusGone, CodeRoomAbandoned},
		{fmt.Errorf("room ABC123: %w", model.ErrVersionConflict), http.StatusConflict, CodeVersionConflict},
		{fmt.Errorf("%w: chess", model.ErrUnknownGameType), http.StatusBadRequest, CodeUnknownGameType},
		{fmt.Errorf("%w: clever", model.ErrUnknownStrategy), http.StatusBadRequest, CodeUnknownStrategy},
		{model.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{model.ErrInvalidSession, http.StatusUnauthorized, CodeUnauthorized},
		{model.ErrUsernameExists, http.StatusConflict, CodeUsernameExists},
		{NewInvalidRequestError("game_type is required"), http.StatusBadRequest, CodeInvalidRequest},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status, Status(tt.err))
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
