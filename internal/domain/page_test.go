package domain_test

import (
	"strconv"
	"testing"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   domain.PageRequest
		want domain.PageRequest
	}{
		{name: "zero values: defaults", in: domain.PageRequest{}, want: domain.PageRequest{Page: 1, Limit: domain.DefaultPageLimit}},
		{name: "limit above max: capped", in: domain.PageRequest{Page: 3, Limit: 1000}, want: domain.PageRequest{Page: 3, Limit: domain.MaxPageLimit}},
		{name: "negative page: first page", in: domain.PageRequest{Page: -2, Limit: 5}, want: domain.PageRequest{Page: 1, Limit: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestNewPage(t *testing.T) {
	req := domain.PageRequest{Page: 2, Limit: 10}

	page := domain.NewPage([]int{11, 12}, req, 12)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 12, page.TotalItems)
	assert.Equal(t, 10, req.Offset())

	empty := domain.NewPage[int](nil, req, 0)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)

	mapped := domain.MapPage(page, strconv.Itoa)
	assert.Equal(t, []string{"11", "12"}, mapped.Items)
	assert.Equal(t, page.TotalPages, mapped.TotalPages)
}
