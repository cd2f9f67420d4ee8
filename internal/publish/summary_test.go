package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummaryString(t *testing.T) {
	tests := []struct {
		summary Summary
		want    string
	}{
		{Summary{}, "Uploaded 0 files."},
		{Summary{Uploaded: 1}, "Uploaded 1 file."},
		{Summary{Uploaded: 3, Deleted: 3}, "Uploaded 3 files • deleted 3."},
		{Summary{Uploaded: 1, Failed: 1}, "Uploaded 1 file • failed 1."},
		{Summary{Failed: 2}, "Uploaded 0 files • failed 2."},
		{Summary{Uploaded: 2, Deleted: 1, Failed: 4}, "Uploaded 2 files • deleted 1 • failed 4."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.summary.String())
	}
}

func TestSummaryAdd(t *testing.T) {
	s := Summary{Uploaded: 1}
	s.Add(Summary{Uploaded: 2, Deleted: 1, Failed: 1})
	assert.Equal(t, Summary{Uploaded: 3, Deleted: 1, Failed: 1}, s)
}

func TestUnifiedDiffUnchanged(t *testing.T) {
	assert.Equal(t, "", unifiedDiff("n.md", "same", "same"))
}
