package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "not found",
			err:  NotFound("page %q", "foo/bar"),
			want: KindNotFound,
		},
		{
			name: "wrapped not found",
			err:  fmt.Errorf("loading page: %w", NotFound("page %q", "foo")),
			want: KindNotFound,
		},
		{
			name: "recoverable",
			err:  Recoverable("version conflict"),
			want: KindRecoverable,
		},
		{
			name: "wrapped recoverable",
			err:  fmt.Errorf("edit: %w", Recoverable("no changes")),
			want: KindRecoverable,
		},
		{
			name: "plain error falls back to unhandled",
			err:  fmt.Errorf("disk on fire"),
			want: KindUnhandled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestMessages(t *testing.T) {
	err := Recoverable("version conflict", "no changes")
	assert.Equal(t, []string{"version conflict", "no changes"}, Messages(err))

	assert.Equal(t, []string{"boom"}, Messages(fmt.Errorf("boom")))
}

func TestCheckAccumulates(t *testing.T) {
	var c Check
	require.NoError(t, c.Err())

	c.Add("version conflict")
	c.Add("no changes")

	err := c.Err()
	require.Error(t, err)
	assert.Equal(t, KindRecoverable, Classify(err))
	assert.Equal(t, []string{"version conflict", "no changes"}, Messages(err))
}

func TestNotFoundMessage(t *testing.T) {
	assert.EqualError(t, NotFound("page %q", "a/b"), `page "a/b" not found`)
}
