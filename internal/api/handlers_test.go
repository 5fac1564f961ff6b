package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mdawahq/mdawa-transfer/internal/auth"
	"github.com/mdawahq/mdawa-transfer/internal/otp"
	"github.com/mdawahq/mdawa-transfer/internal/patient"
	"github.com/mdawahq/mdawa-transfer/internal/record"
	"github.com/mdawahq/mdawa-transfer/internal/store"
	"github.com/mdawahq/mdawa-transfer/internal/transfer"
)

type testEnv struct {
	router *gin.Engine
	token  string
	store  *store.FileStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fs, err := store.NewFileStore(filepath.Join(t.TempDir(), "store.json"), nil)
	require.NoError(t, err)

	authService := auth.NewService(fs, nil, auth.Config{JWTSecret: "test-secret", TokenExpiry: time.Hour})
	ctx := context.Background()
	_, err = authService.Register(ctx, "Dr. Achieng", "achieng@example.org", "s3cret", auth.RoleDoctor)
	require.NoError(t, err)
	token, _, err := authService.Login(ctx, "achieng@example.org", "s3cret")
	require.NoError(t, err)

	verifier := otp.NewVerifier()
	handler := NewHandler(fs, verifier, authService, nil, zap.NewNop())
	router := NewRouter(handler, authService).SetupRouter(zap.NewNop())

	return &testEnv{router: router, token: token, store: fs}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func testPayloadText(t *testing.T) (string, string) {
	t.Helper()
	sess, err := otp.NewSession("p1", "Amina Odhiambo", 15*time.Minute)
	require.NoError(t, err)

	p := patient.Patient{ID: "p1", FirstName: "Amina", LastName: "Odhiambo"}
	payload := transfer.Encode(p,
		[]record.MedicalRecord{{ID: "r1", PatientID: "p1", Diagnosis: "malaria"}},
		[]record.Prescription{{ID: "rx1", PatientID: "p1", Medication: "artemether"}},
		nil, nil, nil, sess)

	text, err := transfer.Serialize(payload)
	require.NoError(t, err)
	return text, sess.Code
}

func TestTransferFlow_ReceiveVerifyMerge(t *testing.T) {
	env := newTestEnv(t)
	text, code := testPayloadText(t)

	// Receive registers the pending session.
	w := env.do(t, http.MethodPost, "/api/transfers/receive", gin.H{"data": text})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var received struct {
		PatientID string `json:"patientId"`
		Records   int    `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &received))
	assert.Equal(t, "p1", received.PatientID)
	assert.Equal(t, 1, received.Records)

	// Verify consumes the code and commits the merge.
	w = env.do(t, http.MethodPost, "/api/transfers/verify", gin.H{"otp": code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	ds, err := env.store.LoadDataset(context.Background())
	require.NoError(t, err)
	require.Len(t, ds.Patients, 1)
	assert.Equal(t, "p1", ds.Patients[0].ID)
	require.Len(t, ds.MedicalRecords, 1)
	assert.Equal(t, "malaria", ds.MedicalRecords[0].Diagnosis)

	// The patient is now visible through the API.
	w = env.do(t, http.MethodGet, "/api/patients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"p1"`)

	w = env.do(t, http.MethodGet, "/api/patients/p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "malaria")
}

func TestTransferFlow_SecondVerifyFails(t *testing.T) {
	env := newTestEnv(t)
	text, code := testPayloadText(t)

	w := env.do(t, http.MethodPost, "/api/transfers/receive", gin.H{"data": text})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/transfers/verify", gin.H{"otp": code})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/transfers/verify", gin.H{"otp": code})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already been used")
}

func TestVerify_ErrorMapping(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		otp    string
		status int
	}{
		{"12345", http.StatusBadRequest},
		{"12a456", http.StatusBadRequest},
		{"654321", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := env.do(t, http.MethodPost, "/api/transfers/verify", gin.H{"otp": tc.otp})
		assert.Equal(t, tc.status, w.Code, "otp %q", tc.otp)
	}
}

func TestReceive_RejectsBadPayloads(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/transfers/receive", gin.H{"data": "{not json"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "malformed_json")

	w = env.do(t, http.MethodPost, "/api/transfers/receive", gin.H{"data": `{"foo":1}`})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "schema_mismatch")
}

func TestRoutes_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", "bogus"))
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_Endpoint(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(gin.H{"email": "achieng@example.org", "password": "s3cret"}))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")

	buf.Reset()
	require.NoError(t, json.NewEncoder(&buf).Encode(gin.H{"email": "achieng@example.org", "password": "wrong"}))
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", &buf)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
