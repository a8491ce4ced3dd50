package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"taskmate/internal/automation"
	"taskmate/internal/client"
)

func TestUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "expired token",
			err:  fmt.Errorf("create task: %w", &client.APIError{Status: 401, Message: "Token is not valid"}),
			want: "session expired, run `taskmate login` again",
		},
		{
			name: "halted pass",
			err:  fmt.Errorf("%w: boom", automation.ErrReauthRequired),
			want: "session expired, run `taskmate login` again",
		},
		{
			name: "server message",
			err:  fmt.Errorf("update task: %w", &client.APIError{Status: 404, Message: "Task not found"}),
			want: "Task not found",
		},
		{
			name: "plain error",
			err:  errors.New("disk full"),
			want: "disk full",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, userError(tt.err), tt.want)
		})
	}
}
