// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package recommend

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/tomtom215/trendloom/internal/models"
	"github.com/tomtom215/trendloom/internal/source"
)

func price(v float64) *float64 { return &v }

func TestFilters_Match(t *testing.T) {
	items := []models.Item{
		{ID: "cheap", Title: "Linen shirt", Brand: "Uniqlo", Category: "Tops", Price: price(19)},
		{ID: "mid", Title: "Silk summer dress", Brand: "Zara Woman", Category: "Dresses", Price: price(79)},
		{ID: "dear", Title: "Silk gown", Brand: "Prada", Category: "Dresses", Price: price(1200)},
		{ID: "mini", Title: "Mini dress", Description: "short linen", Brand: "Zara", Category: "Dresses"},
		{ID: "bare", Title: "Mystery item"},
	}

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"price range keeps unpriced items", Filters{PriceMin: price(20), PriceMax: price(100)}, []string{"mid", "mini", "bare"}},
		{"brand substring case-insensitive", Filters{Brand: "zara"}, []string{"mid", "mini", "bare"}},
		{"category", Filters{Category: "TOPS"}, []string{"cheap", "bare"}},
		{"any keyword in title or description", Filters{Keywords: []string{"Linen"}}, []string{"cheap", "mini"}},
		{"exclude keywords", Filters{ExcludeKeywords: []string{"silk", "mini"}}, []string{"cheap", "bare"}},
		{"combined", Filters{Category: "dress", Keywords: []string{"silk"}, PriceMax: price(500)}, []string{"mid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.filters.normalize()
			if err != nil {
				t.Fatalf("normalize() error = %v", err)
			}
			var got []string
			for _, it := range f.apply(items) {
				got = append(got, it.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilters_Normalize(t *testing.T) {
	f, err := (&Filters{Keywords: []string{" ", ""}, Brand: "  "}).normalize()
	if err != nil || f != nil {
		t.Errorf("blank filters should normalize to nil, got %+v %v", f, err)
	}

	invalid := []Filters{
		{PriceMin: price(-1)},
		{PriceMin: price(50), PriceMax: price(10)},
		{Brand: strings.Repeat("b", 129)},
		{Keywords: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}},
	}
	for _, in := range invalid {
		if _, err := in.normalize(); !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("normalize(%+v) error = %v, want ErrInvalidQuery", in, err)
		}
	}
}

func TestSearch_FiltersApplyBeforeScoring(t *testing.T) {
	shop := &fakeSource{name: "shop", kind: source.KindEcommerce, items: []models.RawItem{
		{URL: "https://shop.example/cheap-dress", Title: "Summer dress", Brand: "Basic", Price: price(15)},
		{URL: "https://shop.example/zara-dress", Title: "Summer dress", Brand: "Zara", Price: price(59)},
		{URL: "https://shop.example/mini-dress", Title: "Mini summer dress", Brand: "Zara", Price: price(49)},
	}}
	h := newHarness(t, nil, shop)
	ctx := context.Background()

	resp, err := h.svc.Search(ctx, Search{
		Query:   "summer dress",
		Filters: Filters{PriceMin: price(20), ExcludeKeywords: []string{"mini"}},
	}, "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.Count != 1 || resp.Items[0].Item.ID != models.CanonicalID("https://shop.example/zara-dress") {
		t.Errorf("filtered items = %+v", resp.Items)
	}

	// Filtering copies; the cached aggregate is untouched.
	all, err := h.svc.Search(ctx, Search{Query: "summer dress"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if all.Count != 3 {
		t.Errorf("unfiltered search returned %d items, want 3", all.Count)
	}
	if got := len(shop.calls()); got != 1 {
		t.Errorf("source called %d times, want 1 (filters must not change the cache key)", got)
	}

	if _, err := h.svc.Search(ctx, Search{Query: "summer dress", Filters: Filters{PriceMin: price(90), PriceMax: price(10)}}, ""); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("inverted price range: expected ErrInvalidQuery, got %v", err)
	}
}
