//go:build e2e

package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentToStudentFlow(t *testing.T) {
	programID := uniqueName("e2e-program")
	applicantID := createTestApplicant(t, programID)

	getResp := makeRequest("GET", fmt.Sprintf("/applications/%s", applicantID), nil, authToken)
	require.True(t, getResp.IsSuccess(), getResp.Message)
	assert.Equal(t, "new", getResp.GetString("status"))

	listResp := makeRequest("GET", "/applications?program_id="+programID, nil, authToken)
	require.True(t, listResp.IsSuccess(), listResp.Message)
	assert.Contains(t, listResp.RawData, applicantID)

	docsResp := makeRequest("GET", fmt.Sprintf("/applications/%s/documents", applicantID), nil, authToken)
	assert.True(t, docsResp.IsSuccess(), docsResp.Message)

	notesResp := makeRequest("PUT", fmt.Sprintf("/applications/%s/notes", applicantID), map[string]string{
		"notes": "documentos completos",
	}, authToken)
	assert.True(t, notesResp.IsSuccess(), notesResp.Message)

	acceptResp := makeRequest("PUT", fmt.Sprintf("/applications/%s/status", applicantID), map[string]string{
		"status": "accepted",
	}, authToken)
	require.True(t, acceptResp.IsSuccess(), acceptResp.Message)
	studentID := acceptResp.GetString("student_id")
	require.NotEmpty(t, studentID)

	studentResp := makeRequest("GET", fmt.Sprintf("/students/%s", studentID), nil, authToken)
	require.True(t, studentResp.IsSuccess(), studentResp.Message)
	assert.Regexp(t, `^UFN-\d{4}-\d{3,}$`, studentResp.GetString("matricula"))

	studentsResp := makeRequest("GET", "/students?program_id="+programID, nil, authToken)
	require.True(t, studentsResp.IsSuccess(), studentsResp.Message)
	assert.Contains(t, studentsResp.RawData, studentID)
}

func TestEnrollmentRejectsInvalidCURP(t *testing.T) {
	resp := makeRequest("POST", "/enrollments", map[string]interface{}{
		"name":        "Aspirante",
		"email":       "aspirante@example.com",
		"phone":       "899-555-0101",
		"curp":        "INVALIDA",
		"high_school": "CBTIS 7",
		"address":     "Calle Hidalgo 120",
		"program_id":  "ing-ind",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	resp := makeRequest("POST", "/messages/count", map[string]string{"audience": "students"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
