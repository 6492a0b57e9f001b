package suggest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgfence/pgfence/internal/suggest"
)

func TestGetSuggestionRendersTemplate(t *testing.T) {
	s := suggest.New()
	out, err := s.GetSuggestion("drop-table", suggest.Data{"TableName": "orders"})
	require.NoError(t, err)
	assert.Contains(t, out.Steps[0], "orders_pending_drop")
}

func TestGetSuggestionUnknownRule(t *testing.T) {
	s := suggest.New()
	_, err := s.GetSuggestion("not-a-real-rule", suggest.Data{})
	assert.ErrorIs(t, err, suggest.ErrNoSuggestion)
}

func TestHasSuggestion(t *testing.T) {
	s := suggest.New()
	assert.True(t, s.HasSuggestion("rename-table"))
	assert.False(t, s.HasSuggestion("nonexistent"))
}
