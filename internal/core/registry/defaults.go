package registry

import "github.com/kirillkom/tradedoc-reconciler/internal/core/domain"

// Group ids referenced directly by rules and the matcher.
const (
	GroupInvoiceNumber   = "invoice.number"
	GroupInvoiceValue    = "invoice.value"
	GroupInvoiceCurrency = "invoice.currency"
	GroupDutyAmount      = "duty.amount"
	GroupExchangeRate    = "exchange.rate"
	GroupGrossWeight     = "weight.gross"
	GroupNetWeight       = "weight.net"
	GroupPackages        = "packages.count"
	GroupInvoiceDate     = "invoice.date"
	GroupShipmentDate    = "shipment.date"
	GroupCustomsDate     = "customs.date"
	GroupHSNCode         = "hsn.code"
)

// DefaultGroups is the built-in field catalogue, ordered by report priority.
func DefaultGroups() []domain.CanonicalFieldGroup {
	return []domain.CanonicalFieldGroup{
		{
			GroupID:  "invoice.number",
			Label:    "Invoice Number",
			Aliases:  []string{"invoice no", "inv no", "invoice num", "commercial invoice no", "commercial invoice number", "invoice ref"},
			Kind:     domain.KindIdentifier,
			Category: domain.CategoryIdentifiers,
		},
		{
			GroupID:  "awb.number",
			Label:    "Air Waybill Number",
			Aliases:  []string{"awb", "awb no", "awb number", "mawb", "mawb no", "mawb number", "master awb", "air waybill no", "airway bill no", "airway bill number"},
			Kind:     domain.KindIdentifier,
			Category: domain.CategoryIdentifiers,
		},
		{
			GroupID:  "hawb.number",
			Label:    "House Air Waybill Number",
			Aliases:  []string{"hawb", "hawb no", "hawb number", "house awb", "house awb no", "house waybill no"},
			Kind:     domain.KindIdentifier,
			Category: domain.CategoryIdentifiers,
		},
		{
			GroupID:  "boe.number",
			Label:    "Bill of Entry Number",
			Aliases:  []string{"boe no", "be no", "be number", "bill of entry no", "entry no", "entry number"},
			Kind:     domain.KindIdentifier,
			Category: domain.CategoryIdentifiers,
		},
		{
			GroupID:  "po.number",
			Label:    "Purchase Order Number",
			Aliases:  []string{"po", "po no", "po number", "purchase order", "purchase order no", "order no", "buyer order no"},
			Kind:     domain.KindIdentifier,
			Category: domain.CategoryIdentifiers,
		},
		{
			GroupID:   "shipper.name",
			Label:     "Shipper Name",
			Aliases:   []string{"shipper", "exporter", "exporter name", "consignor", "consignor name", "seller", "supplier", "supplier name", "shipper s name"},
			Kind:      domain.KindText,
			Category:  domain.CategoryParties,
			Tolerance: domain.Tolerance{Similarity: 0.6},
		},
		{
			GroupID:   "shipper.address",
			Label:     "Shipper Address",
			Aliases:   []string{"exporter address", "consignor address", "seller address", "supplier address", "shipper s address"},
			Kind:      domain.KindAddress,
			Category:  domain.CategoryParties,
			Tolerance: domain.Tolerance{Similarity: 0.6},
		},
		{
			GroupID:   "consignee.name",
			Label:     "Consignee Name",
			Aliases:   []string{"consignee", "buyer", "buyer name", "importer", "importer name", "ship to", "sold to", "consignee s name"},
			Kind:      domain.KindText,
			Category:  domain.CategoryParties,
			Tolerance: domain.Tolerance{Similarity: 0.6},
		},
		{
			GroupID:   "consignee.address",
			Label:     "Consignee Address",
			Aliases:   []string{"buyer address", "importer address", "ship to address", "delivery address", "consignee s address"},
			Kind:      domain.KindAddress,
			Category:  domain.CategoryParties,
			Tolerance: domain.Tolerance{Similarity: 0.6},
		},
		{
			GroupID:   "invoice.value",
			Label:     "Invoice Value",
			Aliases:   []string{"invoice total", "invoice amount", "total invoice value", "total value", "total amount", "grand total", "amount due"},
			Kind:      domain.KindMoney,
			Category:  domain.CategoryFinancial,
			Tolerance: domain.Tolerance{Ratio: 0.01},
		},
		{
			GroupID:  "invoice.currency",
			Label:    "Currency",
			Aliases:  []string{"invoice currency", "currency code"},
			Kind:     domain.KindIdentifier,
			Category: domain.CategoryFinancial,
		},
		{
			GroupID:   "duty.amount",
			Label:     "Duty Amount",
			Aliases:   []string{"duty", "total duty", "customs duty", "duty payable", "total duty payable", "duty paid"},
			Kind:      domain.KindMoney,
			Category:  domain.CategoryFinancial,
			Tolerance: domain.Tolerance{Ratio: 0.01},
		},
		{
			GroupID:   "exchange.rate",
			Label:     "Exchange Rate",
			Aliases:   []string{"exch rate", "exchange rate used", "conversion rate", "rate of exchange"},
			Kind:      domain.KindQuantity,
			Category:  domain.CategoryFinancial,
			Tolerance: domain.Tolerance{Ratio: 0.005},
		},
		{
			GroupID:  "incoterms",
			Label:    "Incoterms",
			Aliases:  []string{"inco terms", "incoterm", "terms of delivery", "delivery terms", "trade terms"},
			Kind:     domain.KindIdentifier,
			Category: domain.CategoryFinancial,
		},
		{
			GroupID:   "payment.terms",
			Label:     "Payment Terms",
			Aliases:   []string{"terms of payment", "payment"},
			Kind:      domain.KindText,
			Category:  domain.CategoryFinancial,
			Tolerance: domain.Tolerance{Similarity: 0.5},
		},
		{
			GroupID:      "weight.gross",
			Label:        "Gross Weight",
			Aliases:      []string{"gross wt", "gr wt", "g w", "total gross weight", "gross weight kg", "gross mass"},
			Kind:         domain.KindQuantity,
			Category:     domain.CategoryShipment,
			ExpectedUnit: "kg",
			Tolerance:    domain.Tolerance{Ratio: 0.02},
		},
		{
			GroupID:      "weight.net",
			Label:        "Net Weight",
			Aliases:      []string{"net wt", "n w", "total net weight", "net weight kg", "net mass"},
			Kind:         domain.KindQuantity,
			Category:     domain.CategoryShipment,
			ExpectedUnit: "kg",
			Tolerance:    domain.Tolerance{Ratio: 0.02},
		},
		{
			GroupID:      "weight.chargeable",
			Label:        "Chargeable Weight",
			Aliases:      []string{"chargeable wt", "chg wt", "charged weight"},
			Kind:         domain.KindQuantity,
			Category:     domain.CategoryShipment,
			ExpectedUnit: "kg",
			Tolerance:    domain.Tolerance{Ratio: 0.05},
		},
		{
			GroupID:      "packages.count",
			Label:        "Number of Packages",
			Aliases:      []string{"packages", "no of packages", "total packages", "package count", "pkgs", "no of pkgs", "cartons", "no of cartons", "total cartons"},
			Kind:         domain.KindQuantity,
			Category:     domain.CategoryShipment,
			ExpectedUnit: "pkg",
		},
		{
			GroupID:  "goods.quantity",
			Label:    "Quantity",
			Aliases:  []string{"qty", "total quantity", "total qty", "quantity shipped"},
			Kind:     domain.KindQuantity,
			Category: domain.CategoryShipment,
		},
		{
			GroupID:  "invoice.date",
			Label:    "Invoice Date",
			Aliases:  []string{"inv date", "date of invoice", "invoice dt"},
			Kind:     domain.KindDate,
			Category: domain.CategoryShipment,
		},
		{
			GroupID:   "shipment.date",
			Label:     "Shipment Date",
			Aliases:   []string{"ship date", "date of shipment", "shipped on", "flight date", "departure date", "date of departure", "executed on"},
			Kind:      domain.KindDate,
			Category:  domain.CategoryShipment,
			Tolerance: domain.Tolerance{DayGap: 1},
		},
		{
			GroupID:  "customs.date",
			Label:    "Customs Entry Date",
			Aliases:  []string{"boe date", "be date", "bill of entry date", "entry date", "customs date", "assessment date"},
			Kind:     domain.KindDate,
			Category: domain.CategoryShipment,
		},
		{
			GroupID:   "delivery.date",
			Label:     "Delivery Date",
			Aliases:   []string{"date of delivery", "delivered on", "received on"},
			Kind:      domain.KindDate,
			Category:  domain.CategoryShipment,
			Tolerance: domain.Tolerance{DayGap: 1},
		},
		{
			GroupID:   "port.loading",
			Label:     "Port of Loading",
			Aliases:   []string{"pol", "loading port", "airport of departure", "departure airport", "origin airport", "port of shipment"},
			Kind:      domain.KindText,
			Category:  domain.CategoryShipment,
			Tolerance: domain.Tolerance{Similarity: 0.5},
		},
		{
			GroupID:   "port.discharge",
			Label:     "Port of Discharge",
			Aliases:   []string{"pod", "discharge port", "airport of destination", "destination airport", "port of destination", "final destination"},
			Kind:      domain.KindText,
			Category:  domain.CategoryShipment,
			Tolerance: domain.Tolerance{Similarity: 0.5},
		},
		{
			GroupID:  "country.origin",
			Label:    "Country of Origin",
			Aliases:  []string{"origin country", "country of origin of goods", "made in", "coo"},
			Kind:     domain.KindText,
			Category: domain.CategoryShipment,
		},
		{
			GroupID:  "flight.number",
			Label:    "Flight Number",
			Aliases:  []string{"flight", "flight no", "flight num"},
			Kind:     domain.KindIdentifier,
			Category: domain.CategoryShipment,
		},
		{
			GroupID:   "hsn.code",
			Label:     "HSN Code",
			Aliases:   []string{"hsn", "hsn no", "hs code", "hts code", "hs tariff code", "tariff code", "cth", "customs tariff heading", "ritc", "ritc code", "commodity code"},
			Kind:      domain.KindCode,
			Category:  domain.CategoryDescriptive,
			Tolerance: domain.Tolerance{CodeLevel: domain.LevelSubheading},
		},
		{
			GroupID:   "goods.description",
			Label:     "Description of Goods",
			Aliases:   []string{"description", "goods description", "item description", "product description", "nature of goods", "nature and quantity of goods", "commodity"},
			Kind:      domain.KindText,
			Category:  domain.CategoryDescriptive,
			Tolerance: domain.Tolerance{Similarity: 0.5},
		},
		{
			GroupID:   "marks.numbers",
			Label:     "Marks and Numbers",
			Aliases:   []string{"marks", "marks & nos", "marks and nos", "shipping marks"},
			Kind:      domain.KindText,
			Category:  domain.CategoryDescriptive,
			Tolerance: domain.Tolerance{Similarity: 0.5},
		},
	}
}

// DefaultSchemas holds the labels whose meaning depends on the document type
// and the groups each type is expected to carry.
func DefaultSchemas() map[domain.DocumentType]TypeSchema {
	return map[domain.DocumentType]TypeSchema{
		domain.DocInvoice: {
			Aliases: map[string]string{
				"date":     "invoice.date",
				"number":   "invoice.number",
				"no":       "invoice.number",
				"amount":   "invoice.value",
				"total":    "invoice.value",
				"value":    "invoice.value",
				"origin":   "country.origin",
				"pieces":   "goods.quantity",
				"quantity": "goods.quantity",
				"gross":    "weight.gross",
				"net":      "weight.net",
			},
			Required: []string{"invoice.number", "shipper.name", "consignee.name", "invoice.value", "invoice.date", "goods.description"},
		},
		domain.DocAirWaybill: {
			Aliases: map[string]string{
				"date":         "shipment.date",
				"number":       "awb.number",
				"no":           "awb.number",
				"weight":       "weight.gross",
				"origin":       "port.loading",
				"destination":  "port.discharge",
				"pieces":       "packages.count",
				"no of pieces": "packages.count",
				"rcp":          "packages.count",
			},
			Required: []string{"awb.number", "shipper.name", "consignee.name", "weight.gross", "packages.count", "port.loading", "port.discharge"},
		},
		domain.DocHouseWaybill: {
			Aliases: map[string]string{
				"date":         "shipment.date",
				"number":       "hawb.number",
				"no":           "hawb.number",
				"weight":       "weight.gross",
				"origin":       "port.loading",
				"destination":  "port.discharge",
				"pieces":       "packages.count",
				"no of pieces": "packages.count",
			},
			Required: []string{"hawb.number", "shipper.name", "consignee.name", "weight.gross", "packages.count"},
		},
		domain.DocBillOfEntry: {
			Aliases: map[string]string{
				"date":             "customs.date",
				"number":           "boe.number",
				"no":               "boe.number",
				"amount":           "duty.amount",
				"total":            "duty.amount",
				"assessable value": "invoice.value",
				"origin":           "country.origin",
			},
			Required: []string{"boe.number", "consignee.name", "invoice.value", "duty.amount", "customs.date", "hsn.code"},
		},
		domain.DocPackingList: {
			Aliases: map[string]string{
				"number":   "invoice.number",
				"gross":    "weight.gross",
				"net":      "weight.net",
				"quantity": "goods.quantity",
			},
			Required: []string{"invoice.number", "weight.gross", "weight.net", "packages.count"},
		},
		domain.DocDeliveryNote: {
			Aliases: map[string]string{
				"date":     "delivery.date",
				"number":   "invoice.number",
				"quantity": "goods.quantity",
			},
			Required: []string{"consignee.name", "delivery.date"},
		},
	}
}

// DefaultCriticalGroups are weighted up in consistency metrics and surface as
// critical discrepancies: identifiers, weights, monetary totals and
// classification codes.
func DefaultCriticalGroups() []string {
	return []string{
		"invoice.number",
		"awb.number",
		"hawb.number",
		"boe.number",
		"weight.gross",
		"weight.net",
		"invoice.value",
		"duty.amount",
		"hsn.code",
	}
}

// DefaultAuthorityTable names the document type that is the source of truth
// for each group when documents disagree.
func DefaultAuthorityTable() map[string]domain.DocumentType {
	return map[string]domain.DocumentType{
		"invoice.number":    domain.DocInvoice,
		"po.number":         domain.DocInvoice,
		"shipper.name":      domain.DocInvoice,
		"shipper.address":   domain.DocInvoice,
		"consignee.name":    domain.DocInvoice,
		"consignee.address": domain.DocInvoice,
		"invoice.value":     domain.DocInvoice,
		"invoice.currency":  domain.DocInvoice,
		"incoterms":         domain.DocInvoice,
		"payment.terms":     domain.DocInvoice,
		"goods.quantity":    domain.DocInvoice,
		"goods.description": domain.DocInvoice,
		"invoice.date":      domain.DocInvoice,

		"awb.number":        domain.DocAirWaybill,
		"weight.gross":      domain.DocAirWaybill,
		"weight.chargeable": domain.DocAirWaybill,
		"packages.count":    domain.DocAirWaybill,
		"shipment.date":     domain.DocAirWaybill,
		"port.loading":      domain.DocAirWaybill,
		"port.discharge":    domain.DocAirWaybill,
		"flight.number":     domain.DocAirWaybill,

		"hawb.number": domain.DocHouseWaybill,

		"boe.number":     domain.DocBillOfEntry,
		"duty.amount":    domain.DocBillOfEntry,
		"hsn.code":       domain.DocBillOfEntry,
		"customs.date":   domain.DocBillOfEntry,
		"country.origin": domain.DocBillOfEntry,
		"exchange.rate":  domain.DocBillOfEntry,

		"weight.net":    domain.DocPackingList,
		"marks.numbers": domain.DocPackingList,

		"delivery.date": domain.DocDeliveryNote,
	}
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := New(DefaultGroups(), DefaultSchemas())
	if err != nil {
		panic(err)
	}
	return r
}
