package testutil

import (
	"reflect"
	"testing"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// AssertEqual -
func AssertEqual(t *testing.T, want, got interface{}, msg string) {
	t.Helper()

	if !reflect.DeepEqual(want, got) {
		t.Fatalf("%s: want %v; got %v", msg, want, got)
	}
}

// RandStr of the given size, lowercase alphanumeric.
func RandStr(t *testing.T, size int) string {
	t.Helper()

	s, err := gonanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", size)
	AssertEqual(t, nil, err, "nanoid")
	return s
}

// RandID returns a random identifier shaped like the ones the service generates.
func RandID(t *testing.T) string {
	t.Helper()
	return RandStr(t, 20)
}
