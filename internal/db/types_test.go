package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidDocumentStatus(t *testing.T) {
	tests := []struct {
		status   DocumentStatus
		expected bool
	}{
		{StatusPending, true},
		{StatusProcessing, true},
		{StatusCompleted, true},
		{StatusFailed, true},
		{DocumentStatus("queued"), false},
		{DocumentStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidDocumentStatus(tt.status))
		})
	}
}

func TestDocument_CanProcess(t *testing.T) {
	tests := []struct {
		status   DocumentStatus
		expected bool
	}{
		{StatusPending, true},
		{StatusFailed, true},
		{StatusProcessing, false},
		{StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			d := &Document{Status: tt.status}
			assert.Equal(t, tt.expected, d.CanProcess())
		})
	}
}
