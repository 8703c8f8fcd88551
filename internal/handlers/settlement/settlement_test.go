package settlement

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/dto"
	"github.com/quizarena/settlement/internal/service/settlementservice"
)

func NewMock(t *testing.T) (*SettlementHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	defer ctrl.Finish()
	return handler, service
}

func TestFinalizeHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
		expectedBody  *dto.FinalizeResponseDTO
	}{
		{
			name: "Finalizes a single competition",
			body: `{"competition_id":"comp-1"}`,
			prepareMock: func() {
				service.EXPECT().
					Finalize(gomock.Any(), "comp-1").
					Return(&settlementservice.Result{
						Finalization: &domain.Finalization{CompetitionID: "comp-1"},
					}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.FinalizeResponseDTO{
				Success:          true,
				Finalized:        []string{"comp-1"},
				AlreadyFinalized: []string{},
			},
		},
		{
			name: "Repeated finalization reports already finalized",
			body: `{"competition_id":"comp-1"}`,
			prepareMock: func() {
				service.EXPECT().
					Finalize(gomock.Any(), "comp-1").
					Return(&settlementservice.Result{
						Finalization:     &domain.Finalization{CompetitionID: "comp-1"},
						AlreadyFinalized: true,
					}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.FinalizeResponseDTO{
				Success:          true,
				Finalized:        []string{},
				AlreadyFinalized: []string{"comp-1"},
			},
		},
		{
			name: "Empty body settles all due competitions",
			body: "",
			prepareMock: func() {
				service.EXPECT().
					FinalizeDue(gomock.Any()).
					Return([]string{"comp-2"}, []string{"comp-1"}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.FinalizeResponseDTO{
				Success:          true,
				Finalized:        []string{"comp-2"},
				AlreadyFinalized: []string{"comp-1"},
			},
		},
		{
			name: "Nothing due",
			body: "{}",
			prepareMock: func() {
				service.EXPECT().
					FinalizeDue(gomock.Any()).
					Return(nil, nil, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.FinalizeResponseDTO{
				Success:          true,
				Finalized:        []string{},
				AlreadyFinalized: []string{},
			},
		},
		{
			name:          "Malformed body",
			body:          `{"competition_id":`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid request body",
		},
		{
			name: "Competition not found",
			body: `{"competition_id":"comp-9"}`,
			prepareMock: func() {
				service.EXPECT().
					Finalize(gomock.Any(), "comp-9").
					Return(nil, settlementservice.ErrCompetitionNotFound)
			},
			expectedCode:  http.StatusNotFound,
			expectedError: "competition not found",
		},
		{
			name: "Competition window still open",
			body: `{"competition_id":"comp-1"}`,
			prepareMock: func() {
				service.EXPECT().
					Finalize(gomock.Any(), "comp-1").
					Return(nil, settlementservice.ErrCompetitionOpen)
			},
			expectedCode:  http.StatusConflict,
			expectedError: "competition window still open",
		},
		{
			name: "Finalization failure",
			body: `{"competition_id":"comp-1"}`,
			prepareMock: func() {
				service.EXPECT().
					Finalize(gomock.Any(), "comp-1").
					Return(nil, errors.New("error"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "finalization failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			var r *http.Request
			if tt.body == "" {
				r = httptest.NewRequest(http.MethodPost, "/api/settlement/finalize", nil)
			} else {
				r = httptest.NewRequest(http.MethodPost, "/api/settlement/finalize", bytes.NewBufferString(tt.body))
			}
			w := httptest.NewRecorder()
			handler.Finalize(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
			if tt.expectedBody != nil {
				var body dto.FinalizeResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, *tt.expectedBody, body)
			}
		})
	}
}
