package registry

import (
	"testing"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

func TestResolveIsCaseAndSeparatorInsensitive(t *testing.T) {
	r := Default()
	for _, label := range []string{"Gross Weight", "gross_weight", "grossWeight", "GROSS-WT.", "weight.gross"} {
		groupID, ok := r.Resolve(label, domain.DocPackingList)
		if !ok || groupID != "weight.gross" {
			t.Fatalf("Resolve(%q) = %q, %v", label, groupID, ok)
		}
	}
	if groupID, ok := r.Resolve("Invoice #", domain.DocInvoice); !ok || groupID != "invoice.number" {
		t.Fatalf("Resolve(Invoice #) = %q, %v", groupID, ok)
	}
}

func TestResolveScopesAmbiguousLabelsByDocumentType(t *testing.T) {
	r := Default()
	cases := []struct {
		docType domain.DocumentType
		want    string
	}{
		{docType: domain.DocInvoice, want: "invoice.date"},
		{docType: domain.DocAirWaybill, want: "shipment.date"},
		{docType: domain.DocBillOfEntry, want: "customs.date"},
		{docType: domain.DocDeliveryNote, want: "delivery.date"},
	}
	for _, tc := range cases {
		m, ok := r.Lookup("Date", tc.docType)
		if !ok || m.GroupID != tc.want || !m.Scoped {
			t.Fatalf("Lookup(Date, %s) = %+v, %v; want %s", tc.docType, m, ok, tc.want)
		}
	}

	if m, ok := r.Lookup("origin", domain.DocAirWaybill); !ok || m.GroupID != "port.loading" {
		t.Fatalf("air waybill origin resolved to %+v", m)
	}
	if m, ok := r.Lookup("origin", domain.DocInvoice); !ok || m.GroupID != "country.origin" {
		t.Fatalf("invoice origin resolved to %+v", m)
	}
	if _, ok := r.Resolve("date", domain.DocUnknown); ok {
		t.Fatalf("bare date must not resolve without a document type")
	}
}

func TestResolveMiss(t *testing.T) {
	r := Default()
	if _, ok := r.Resolve("Signature of authorised signatory", domain.DocInvoice); ok {
		t.Fatalf("expected registry miss")
	}
	if _, ok := r.Resolve("  ", domain.DocInvoice); ok {
		t.Fatalf("expected miss for blank label")
	}
}

func TestRequiredGroupsFollowRegistryOrder(t *testing.T) {
	r := Default()
	got := r.RequiredGroups(domain.DocPackingList)
	want := []string{"invoice.number", "weight.gross", "weight.net", "packages.count"}
	if len(got) != len(want) {
		t.Fatalf("RequiredGroups = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RequiredGroups = %v, want %v", got, want)
		}
	}
	if len(r.RequiredGroups(domain.DocUnknown)) != 0 {
		t.Fatalf("unknown documents have no required groups")
	}
	if !r.IsRequired("hsn.code", domain.DocBillOfEntry) || r.IsRequired("hsn.code", domain.DocAirWaybill) {
		t.Fatalf("unexpected IsRequired for hsn.code")
	}
}

func TestNewRejectsConflictingAliases(t *testing.T) {
	groups := []domain.CanonicalFieldGroup{
		{GroupID: "a", Aliases: []string{"total"}},
		{GroupID: "b", Aliases: []string{"Total"}},
	}
	if _, err := New(groups, nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	_, err := New([]domain.CanonicalFieldGroup{{GroupID: "a"}}, map[domain.DocumentType]TypeSchema{
		domain.DocInvoice: {Aliases: map[string]string{"x": "missing"}},
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for dangling alias, got %v", err)
	}
}

func TestNewDocumentTypeOnlyAddsAliases(t *testing.T) {
	schemas := DefaultSchemas()
	schemas[domain.DocUnknown] = TypeSchema{Aliases: map[string]string{"date": "invoice.date"}}
	r, err := New(DefaultGroups(), schemas)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if groupID, _ := r.Resolve("date", domain.DocUnknown); groupID != "invoice.date" {
		t.Fatalf("extended type did not resolve: %q", groupID)
	}
	if groupID, _ := r.Resolve("date", domain.DocAirWaybill); groupID != "shipment.date" {
		t.Fatalf("existing type changed: %q", groupID)
	}
}

func TestWithTolerancesCopies(t *testing.T) {
	base := Default()
	tuned, err := base.WithTolerances(map[string]domain.Tolerance{"weight.gross": {Ratio: 0.05}})
	if err != nil {
		t.Fatalf("WithTolerances: %v", err)
	}
	g, _ := tuned.Group("weight.gross")
	if g.Tolerance.Ratio != 0.05 {
		t.Fatalf("override not applied: %+v", g.Tolerance)
	}
	orig, _ := base.Group("weight.gross")
	if orig.Tolerance.Ratio != 0.02 {
		t.Fatalf("base registry mutated: %+v", orig.Tolerance)
	}
	if _, err := base.WithTolerances(map[string]domain.Tolerance{"nope": {}}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown group, got %v", err)
	}
}

func TestDefaultTablesReferenceKnownGroups(t *testing.T) {
	r := Default()
	for _, id := range DefaultCriticalGroups() {
		if _, ok := r.Group(id); !ok {
			t.Fatalf("critical group %q not in registry", id)
		}
	}
	for id, docType := range DefaultAuthorityTable() {
		if _, ok := r.Group(id); !ok {
			t.Fatalf("authority group %q not in registry", id)
		}
		if !docType.Valid() || docType == domain.DocUnknown {
			t.Fatalf("authority for %q is %q", id, docType)
		}
	}
}

func TestLabelKey(t *testing.T) {
	cases := map[string]string{
		"Gross Wt.":        "gross wt",
		"grossWeightKg":    "gross weight kg",
		"  AWB   No. ":     "awb no",
		"Shipper's Name":   "shipper s name",
		"invoice#":         "invoice no",
		"consignee.name":   "consignee name",
		"HSN/ITC(HS) Code": "hsn itc hs code",
	}
	for in, want := range cases {
		if got := LabelKey(in); got != want {
			t.Fatalf("LabelKey(%q) = %q, want %q", in, got, want)
		}
	}
}
