package main

import (
	"reflect"
	"testing"

	"celldecode/pkg/features"
)

// TestParseFeatureList verifies spacing and empty entries in -features
func TestParseFeatureList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"hull_area,mean_red", []string{"hull_area", "mean_red"}},
		{"hull_area, mean_red", []string{"hull_area", "mean_red"}},
		{" solidity ,, circularity, ", []string{"solidity", "circularity"}},
		{"", nil},
		{" , ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseFeatureList(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Expected %q, got %q", tt.want, got)
			}
			if _, err := features.NewBuilder(got...); err != nil {
				t.Errorf("Parsed list rejected by the feature builder: %v", err)
			}
		})
	}
}
