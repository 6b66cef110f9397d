package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		page, size int
		wantOffset int
		wantLimit  int
	}{
		{name: "defaults", page: 0, size: 0, wantOffset: 0, wantLimit: 10},
		{name: "negative page clamps to first", page: -3, size: 25, wantOffset: 0, wantLimit: 25},
		{name: "size above cap falls back to default", page: 1, size: 500, wantOffset: 0, wantLimit: 10},
		{name: "size at cap passes", page: 2, size: 100, wantOffset: 100, wantLimit: 100},
		{name: "offset grows with page", page: 3, size: 20, wantOffset: 40, wantLimit: 20},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestParamsOffsetLimit(t *testing.T) {
	t.Parallel()

	offset, limit := Params{Page: 3, Size: 20}.OffsetLimit()
	assert.Equal(t, 40, offset)
	assert.Equal(t, 20, limit)

	offset, limit = Params{}.OffsetLimit()
	assert.Equal(t, 0, offset)
	assert.Equal(t, 10, limit)
}
