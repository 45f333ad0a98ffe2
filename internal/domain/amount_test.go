package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmountMarshalsFixedThreeDecimals(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"3.5", `"3.500"`},
		{"3.500", `"3.500"`},
		{"2.4", `"2.400"`},
		{"0", `"0.000"`},
		{"1.2345", `"1.235"`},
	}
	for _, tc := range cases {
		got, err := json.Marshal(NewAmount(decimal.RequireFromString(tc.in)))
		if err != nil {
			t.Fatalf("marshal %s: %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Fatalf("marshal %s: expected %s, got %s", tc.in, tc.want, got)
		}
	}
}

func TestAmountFieldsMarshalFixedInsideStructs(t *testing.T) {
	order := Order{
		ID:    "ord-1",
		Total: NewAmount(decimal.RequireFromString("3.5")),
	}
	raw, err := json.Marshal(order)
	if err != nil {
		t.Fatalf("marshal order: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal order: %v", err)
	}
	if decoded["total"] != "3.500" {
		t.Fatalf("expected total 3.500, got %v", decoded["total"])
	}
}

func TestAmountRoundTripsThroughJSON(t *testing.T) {
	var a Amount
	if err := json.Unmarshal([]byte(`"2.400"`), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !a.Equal(decimal.RequireFromString("2.4")) {
		t.Fatalf("expected 2.400, got %s", a)
	}
}
