// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "testing"

func TestParseLiteracy(t *testing.T) {
	tests := []struct {
		in      string
		want    Literacy
		wantErr bool
	}{
		{"", LiteracyBeginner, false},
		{"beginner", LiteracyBeginner, false},
		{"intermediate", LiteracyIntermediate, false},
		{"advanced", LiteracyAdvanced, false},
		{"expert", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLiteracy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLiteracy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLiteracy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAudienceIncludes(t *testing.T) {
	tests := []struct {
		name     string
		audience Audience
		level    Literacy
		want     bool
	}{
		{"every level includes beginner", EveryLevel(), LiteracyBeginner, true},
		{"every level includes advanced", EveryLevel(), LiteracyAdvanced, true},
		{"intermediate floor excludes beginner", Audience{Min: LiteracyIntermediate}, LiteracyBeginner, false},
		{"intermediate floor includes advanced", Audience{Min: LiteracyIntermediate}, LiteracyAdvanced, true},
		{"advanced only excludes intermediate", Audience{Min: LiteracyAdvanced, Max: LiteracyAdvanced}, LiteracyIntermediate, false},
		{"open max includes advanced", Audience{Min: LiteracyBeginner}, LiteracyAdvanced, true},
		{"beginner band excludes advanced", Audience{Min: LiteracyBeginner, Max: LiteracyBeginner}, LiteracyAdvanced, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.audience.Includes(tt.level); got != tt.want {
				t.Errorf("Includes(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestNewProfile(t *testing.T) {
	p, err := NewProfile("Retail Investor", "", testNow)
	if err != nil {
		t.Fatalf("NewProfile: %v", err)
	}
	if p.Literacy != LiteracyBeginner {
		t.Errorf("Literacy = %q, want beginner default", p.Literacy)
	}
	if p.ID == "" || p.DisplayName != "Retail Investor" {
		t.Errorf("profile not populated: %+v", p)
	}

	if _, err := NewProfile("   ", LiteracyBeginner, testNow); err == nil {
		t.Error("blank display name accepted")
	}
	if _, err := NewProfile("Quant", "wizard", testNow); err == nil {
		t.Error("unknown literacy accepted")
	}
}
