package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider implements the Provider interface for testing
type mockProvider struct {
	name      string
	available bool
	response  *SummarizeResponse
	err       error
	got       SummarizeRequest
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Summarize(_ context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockProvider) IsAvailable(context.Context) bool { return m.available }

func TestNewBriefer_Disabled(t *testing.T) {
	b, err := NewBriefer(Config{}, nil)
	require.NoError(t, err)
	assert.False(t, b.IsEnabled())
	assert.Empty(t, b.ProviderName())

	brief, err := b.Brief(context.Background(), testReport())
	assert.NoError(t, err)
	assert.Nil(t, brief)
}

func TestNewBriefer_UnknownProvider(t *testing.T) {
	_, err := NewBriefer(Config{Provider: "anthropic"}, nil)
	assert.Error(t, err)
}

func TestBriefer_ProviderUnavailable(t *testing.T) {
	b := NewBrieferWithProvider(&mockProvider{name: "mock"}, Config{Model: "m"})

	brief, err := b.Brief(context.Background(), testReport())
	require.NoError(t, err)
	require.NotNil(t, brief)
	assert.Empty(t, brief.Text)
	require.Len(t, brief.Warnings, 1)
	assert.Contains(t, brief.Warnings[0], "not available")
}

func TestBriefer_StripsUnknownCitations(t *testing.T) {
	mock := &mockProvider{
		name:      "mock",
		available: true,
		response: &SummarizeResponse{
			Summary:    "Buyers love the fit [R001] [R099]. Rivals run small (C1-R001, C7-R003).",
			Model:      "mock-1",
			TokensUsed: 42,
		},
	}
	report := testReport()
	before := report.DataQuality

	brief, err := NewBrieferWithProvider(mock, Config{}).Brief(context.Background(), report)
	require.NoError(t, err)

	assert.Equal(t, []string{"R001", "C1-R001"}, mock.got.AllowedIDs)
	assert.Equal(t, "Buyers love the fit [R001]. Rivals run small (C1-R001).", brief.Text)
	assert.Equal(t, []string{"R001", "C1-R001"}, brief.CitedIDs)
	assert.Equal(t, []string{
		"Removed citation to unknown review R099",
		"Removed citation to unknown review C7-R003",
	}, brief.Warnings)
	assert.Equal(t, "mock", brief.Provider)
	assert.Equal(t, "mock-1", brief.Model)
	assert.Equal(t, 42, brief.TokensUsed)
	assert.Equal(t, before, report.DataQuality)
}

func TestBriefer_ProviderError(t *testing.T) {
	mock := &mockProvider{name: "mock", available: true, err: errors.New("boom")}

	_, err := NewBrieferWithProvider(mock, Config{}).Brief(context.Background(), testReport())
	assert.Error(t, err)
}

func TestStripCitations(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantText     string
		wantKept     []string
		wantStripped []string
	}{
		{"all allowed", "Great [R001] and RD-R002.", "Great [R001] and RD-R002.", []string{"R001", "RD-R002"}, nil},
		{"bare unknown", "See R777 for details.", "See for details.", nil, []string{"R777"}},
		{"bracket list", "Fit issues [R001, YT-R009].", "Fit issues [R001].", []string{"R001"}, []string{"YT-R009"}},
		{"repeat counted once", "[R500] and again [R500]", "and again", nil, []string{"R500"}},
	}

	allowed := []string{"R001", "RD-R002"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, kept, stripped := StripCitations(tt.text, allowed)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantKept, kept)
			assert.Equal(t, tt.wantStripped, stripped)
		})
	}
}
