package extract

import "testing"

func TestNormalize_ListTakesFirstNonEmpty(t *testing.T) {
	fm := map[string]any{
		"identifier": []any{"", "  ", "ABC123", "XYZ999"},
	}
	got, ok := Normalize(fm, "identifier")
	if !ok || got != "ABC123" {
		t.Errorf("Normalize = %q (ok=%v), want ABC123", got, ok)
	}
}

func TestNormalize_StringSlice(t *testing.T) {
	fm := map[string]any{
		"brand": []string{"Gilson"},
	}
	got, ok := Normalize(fm, "brand")
	if !ok || got != "Gilson" {
		t.Errorf("Normalize = %q (ok=%v), want Gilson", got, ok)
	}
}

func TestNormalize_Scalar(t *testing.T) {
	fm := map[string]any{
		"price": "$145.00",
		"count": float64(96),
	}

	got, ok := Normalize(fm, "price")
	if !ok || got != "$145.00" {
		t.Errorf("Normalize(price) = %q (ok=%v)", got, ok)
	}

	got, ok = Normalize(fm, "count")
	if !ok || got != "96" {
		t.Errorf("Normalize(count) = %q (ok=%v), want 96", got, ok)
	}
}

func TestNormalize_NestedMap(t *testing.T) {
	cases := []struct {
		name string
		in   map[string]any
		want string
	}{
		{"prefers text key", map[string]any{"text": "ABC", "value": "DEF", "alt": "GHI"}, "ABC"},
		{"falls back to value key", map[string]any{"value": "DEF", "alt": "GHI"}, "DEF"},
		{"sorted key order decides", map[string]any{"z": "LAST", "a": "FIRST"}, "FIRST"},
		{"skips empty values", map[string]any{"a": "", "b": "KEPT"}, "KEPT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Normalize(map[string]any{"field": tc.in}, "field")
			if !ok || got != tc.want {
				t.Errorf("Normalize = %q (ok=%v), want %q", got, ok, tc.want)
			}
		})
	}
}

func TestNormalize_AbsentAndEmpty(t *testing.T) {
	if _, ok := Normalize(nil, "identifier"); ok {
		t.Error("nil map resolved")
	}
	if _, ok := Normalize(map[string]any{}, "identifier"); ok {
		t.Error("missing entry resolved")
	}
	if _, ok := Normalize(map[string]any{"identifier": []any{}}, "identifier"); ok {
		t.Error("empty list resolved")
	}
	if _, ok := Normalize(map[string]any{"identifier": "   "}, "identifier"); ok {
		t.Error("blank scalar resolved")
	}
	if _, ok := Normalize(map[string]any{"identifier": map[string]any{"a": ""}}, "identifier"); ok {
		t.Error("all-empty map resolved")
	}
}
