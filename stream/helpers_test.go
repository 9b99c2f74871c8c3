package stream

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func TestGetStringAttr(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"name":  events.NewStringAttribute("Engineering"),
		"level": events.NewNumberAttribute("2"),
	}

	tests := []struct {
		key  string
		want string
	}{
		{key: "name", want: "Engineering"},
		{key: "level", want: ""},
		{key: "missing", want: ""},
	}
	for _, tt := range tests {
		if got := getStringAttr(image, tt.key); got != tt.want {
			t.Errorf("getStringAttr(%q): expected %q, got %q", tt.key, tt.want, got)
		}
	}
}

func TestGetStringAttr_NilImage(t *testing.T) {
	if got := getStringAttr(nil, "id"); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestGetNumberAttr(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"level": events.NewNumberAttribute("3"),
		"frac":  events.NewNumberAttribute("1.5"),
		"name":  events.NewStringAttribute("7"),
	}

	tests := []struct {
		key    string
		want   int64
		wantOK bool
	}{
		{key: "level", want: 3, wantOK: true},
		{key: "frac", want: 0, wantOK: false},
		{key: "name", want: 0, wantOK: false},
		{key: "missing", want: 0, wantOK: false},
	}
	for _, tt := range tests {
		got, ok := getNumberAttr(image, tt.key)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("getNumberAttr(%q): expected (%d, %v), got (%d, %v)", tt.key, tt.want, tt.wantOK, got, ok)
		}
	}
}

func TestTableFromARN(t *testing.T) {
	tests := []struct {
		arn  string
		want string
	}{
		{arn: "arn:aws:dynamodb:us-east-1:123456789012:table/organizations/stream/2024-05-01T00:00:00.000", want: "organizations"},
		{arn: "arn:aws:dynamodb:us-east-1:123456789012:table/canopy_organizations", want: "canopy_organizations"},
		{arn: "", want: ""},
		{arn: "arn:aws:sqs:us-east-1:123456789012:queue", want: ""},
	}
	for _, tt := range tests {
		if got := tableFromARN(tt.arn); got != tt.want {
			t.Errorf("tableFromARN(%q): expected %q, got %q", tt.arn, tt.want, got)
		}
	}
}
