package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		url  string
		want int
	}{
		{"/", 1},
		{"/?page=3", 3},
		{"/?page=0", 1},
		{"/?page=-2", 1},
		{"/?page=abc", 1},
	}
	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			if got := ParsePage(httptest.NewRequest("GET", tc.url, nil)); got != tc.want {
				t.Errorf("ParsePage(%q) = %d, want %d", tc.url, got, tc.want)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(1); got != 0 {
		t.Errorf("Offset(1) = %d, want 0", got)
	}
	if got := Offset(3); got != int64(2*PageSize) {
		t.Errorf("Offset(3) = %d, want %d", got, 2*PageSize)
	}
	if got := Offset(0); got != 0 {
		t.Errorf("Offset(0) = %d, want 0", got)
	}
}

func TestComputeWindow(t *testing.T) {
	tests := []struct {
		name  string
		page  int
		total int64
		want  Window
	}{
		{"empty", 1, 0, Window{Page: 1, TotalPages: 1}},
		{"single page", 1, PageSize, Window{Page: 1, TotalPages: 1, Total: PageSize}},
		{"first of two", 1, PageSize + 1, Window{Page: 1, TotalPages: 2, Total: PageSize + 1, HasNext: true}},
		{"last of two", 2, PageSize + 1, Window{Page: 2, TotalPages: 2, Total: PageSize + 1, HasPrev: true}},
		{"middle", 2, 3 * PageSize, Window{Page: 2, TotalPages: 3, Total: 3 * PageSize, HasPrev: true, HasNext: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeWindow(tc.page, tc.total); got != tc.want {
				t.Errorf("ComputeWindow(%d, %d) = %+v, want %+v", tc.page, tc.total, got, tc.want)
			}
		})
	}
}
