package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingQuery_Offset(t *testing.T) {
	tests := []struct {
		page, limit, want int
	}{
		{page: 0, limit: 20, want: 0},
		{page: 1, limit: 20, want: 0},
		{page: 3, limit: 20, want: 40},
		{page: MaxListingPage + 1, limit: 50, want: (MaxListingPage - 1) * 50},
		{page: 1 << 62, limit: 20, want: (MaxListingPage - 1) * 20},
	}
	for _, tt := range tests {
		got := ListingQuery{Page: tt.page, Limit: tt.limit}.Offset()
		assert.Equal(t, tt.want, got, "page %d", tt.page)
		assert.GreaterOrEqual(t, got, 0)
	}
}
