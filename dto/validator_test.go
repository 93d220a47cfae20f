package dto

import (
	"strings"
	"testing"
)

func TestStrongPassword(t *testing.T) {
	cases := []struct {
		password string
		valid    bool
	}{
		{"Sup3rSecret", true},
		{"short1A", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoNumbersHere", false},
		{"", false},
	}

	for _, tc := range cases {
		req := RegisterRequest{Email: "user@example.com", Password: tc.password}
		err := req.Validate()
		if tc.valid && err != nil {
			t.Errorf("password %q should validate, got %v", tc.password, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("password %q should be rejected", tc.password)
		}
	}
}

func TestHintsRequestValidation(t *testing.T) {
	valid := HintsRequest{
		Problem:  Problem{Title: "Two Sum", URL: "https://leetcode.com/problems/two-sum/"},
		Platform: "leetcode",
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	missingTitle := valid
	missingTitle.Problem.Title = ""
	if err := missingTitle.Validate(); err == nil {
		t.Error("missing title should be rejected")
	}

	badPlatform := valid
	badPlatform.Platform = "hackerrank"
	if err := badPlatform.Validate(); err == nil {
		t.Error("unsupported platform should be rejected")
	}

	overlong := valid
	overlong.Problem.Description = strings.Repeat("d", MaxDescriptionChars+1)
	if err := overlong.Validate(); err == nil {
		t.Error("overlong description should be rejected")
	}
}

func TestCreateValidationErrorResponse(t *testing.T) {
	req := RegisterRequest{Email: "not-an-email", Password: "weak"}
	err := req.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}

	resp := CreateValidationErrorResponse(err)
	if resp.Code != 400 {
		t.Errorf("code = %d, want 400", resp.Code)
	}
	if len(resp.Errors) != 2 {
		t.Errorf("errors = %d, want 2", len(resp.Errors))
	}
}
