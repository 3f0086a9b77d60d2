package schema

import (
	"strings"
	"testing"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}
	return v
}

func TestValidateRequestAcceptsAllFieldShapes(t *testing.T) {
	payload := `{
		"requestId": "r-1",
		"documents": [
			{"documentId": "INV-1", "documentType": "invoice", "fields": {
				"Invoice No": {"value": "INV-001", "confidence": 0.9},
				"Gross Weight": "37 kg",
				"Packages": 12,
				"Marks": ["A", "B"],
				"shipper": {"name": {"value": "Acme"}, "address": "Mumbai, India"}
			}},
			{"documentId": "AWB-1", "documentType": "air_waybill", "fields": null},
			{"documentId": "PL-1", "documentType": "packing_list"}
		]
	}`
	if err := newValidator(t).ValidateRequest([]byte(payload)); err != nil {
		t.Fatalf("ValidateRequest() error = %v", err)
	}
}

func TestValidateRequestRejects(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    string
	}{
		{name: "not json", payload: `{"documents": [`, want: "malformed json"},
		{name: "trailing data", payload: `{"documents":[]} {"documents":[]}`, want: "trailing data"},
		{name: "missing documents", payload: `{}`, want: "documents"},
		{name: "blank id", payload: `{"documents":[{"documentId":"  ","documentType":"invoice"}]}`, want: "/documents/0/documentId"},
		{name: "confidence range", payload: `{"documents":[{"documentId":"A","documentType":"invoice","fields":{"x":{"value":"1","confidence":1.5}}}]}`, want: "/documents/0/fields"},
		{name: "unknown key", payload: `{"documents":[],"extra":true}`, want: "extra"},
	}
	v := newValidator(t)
	for _, tc := range cases {
		err := v.ValidateRequest([]byte(tc.payload))
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", tc.name, err)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected %q in %q", tc.name, tc.want, err.Error())
		}
	}
}
