//go:build e2e

package api_test

import (
	"fmt"
	"math/rand"
	"testing"
	"time"
)

const curpLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Helper function to generate unique names
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s %d", prefix, time.Now().UnixNano())
}

// randomCURP builds a well-formed CURP so repeated runs never collide.
func randomCURP() string {
	letters := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = curpLetters[rand.Intn(len(curpLetters))]
		}
		return string(b)
	}
	return fmt.Sprintf("%s%06d%s%s%d%d", letters(4), rand.Intn(1000000), "H", letters(5), rand.Intn(10), rand.Intn(10))
}

// Helper to submit an enrollment and return the application id
func createTestApplicant(t *testing.T, programID string) string {
	t.Helper()
	resp := makeRequest("POST", "/enrollments", map[string]interface{}{
		"name":        uniqueName("Aspirante"),
		"email":       fmt.Sprintf("aspirante_%d@example.com", time.Now().UnixNano()),
		"phone":       "899-555-0101",
		"curp":        randomCURP(),
		"high_school": "CBTIS 7",
		"address":     "Calle Hidalgo 120, Reynosa",
		"program_id":  programID,
	}, "")

	if !resp.IsSuccess() {
		t.Fatalf("Failed to create test applicant: %s", resp.Message)
	}
	return resp.GetString("id")
}
