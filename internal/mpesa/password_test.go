package mpesa

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPasswordGoldenVector(t *testing.T) {
	// Sandbox short code + sandbox passkey + fixed timestamp.
	got := Password(
		"174379",
		"bfb279f9ba9b9d0e61f1567f58f3cb4351714ebf750d86640fcd51e6002f18e2",
		"20240101120000",
	)
	want := "MTc0Mzc5YmZiMjc5ZjliYTliOWQwZTYxZjE1NjdmNThmM2NiNDM1MTcxNGViZjc1MGQ4NjY0MGZjZDUxZTYwMDJmMThlMjIwMjQwMTAxMTIwMDAw"
	assert.Equal(t, want, got)

	// Deterministic: same triple, same output.
	assert.Equal(t, got, Password(
		"174379",
		"bfb279f9ba9b9d0e61f1567f58f3cb4351714ebf750d86640fcd51e6002f18e2",
		"20240101120000",
	))
}

func TestPasswordDifferentInputs(t *testing.T) {
	assert.Equal(t,
		"NjAwOTg2QWJDZEVmR2gyMDIzMTIxNTA5MzA0NQ==",
		Password("600986", "AbCdEfGh", "20231215093045"))
}

func TestTimestamp(t *testing.T) {
	ts := Timestamp(time.Date(2024, 3, 7, 9, 5, 2, 0, time.UTC))
	assert.Equal(t, "20240307090502", ts)
	assert.Len(t, ts, 14)
}
