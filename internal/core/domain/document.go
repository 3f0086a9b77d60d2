package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type DocumentType string

const (
	DocInvoice      DocumentType = "invoice"
	DocAirWaybill   DocumentType = "air_waybill"
	DocHouseWaybill DocumentType = "house_waybill"
	DocBillOfEntry  DocumentType = "bill_of_entry"
	DocPackingList  DocumentType = "packing_list"
	DocDeliveryNote DocumentType = "delivery_note"
	DocUnknown      DocumentType = "unknown"
)

// DocumentTypes lists the closed set of supported variants.
var DocumentTypes = []DocumentType{
	DocInvoice,
	DocAirWaybill,
	DocHouseWaybill,
	DocBillOfEntry,
	DocPackingList,
	DocDeliveryNote,
	DocUnknown,
}

var documentTypeAliases = map[string]DocumentType{
	"invoice":            DocInvoice,
	"commercial_invoice": DocInvoice,
	"tax_invoice":        DocInvoice,
	"air_waybill":        DocAirWaybill,
	"airway_bill":        DocAirWaybill,
	"awb":                DocAirWaybill,
	"mawb":               DocAirWaybill,
	"master_air_waybill": DocAirWaybill,
	"house_waybill":      DocHouseWaybill,
	"house_air_waybill":  DocHouseWaybill,
	"hawb":               DocHouseWaybill,
	"bill_of_entry":      DocBillOfEntry,
	"boe":                DocBillOfEntry,
	"customs_entry":      DocBillOfEntry,
	"packing_list":       DocPackingList,
	"delivery_note":      DocDeliveryNote,
	"delivery_challan":   DocDeliveryNote,
	"unknown":            DocUnknown,
}

// ParseDocumentType maps free-form type names onto the closed set. Anything
// unrecognised becomes DocUnknown.
func ParseDocumentType(s string) DocumentType {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if t, ok := documentTypeAliases[key]; ok {
		return t
	}
	return DocUnknown
}

func (t DocumentType) Valid() bool {
	for _, known := range DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// DefaultConfidence is assigned to values the extractor reported without a score.
const DefaultConfidence = 1.0

type FieldValue struct {
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Text renders the extracted value as the string the normalizer parses.
func (v FieldValue) Text() string {
	switch raw := v.Value.(type) {
	case nil:
		return ""
	case string:
		return raw
	case json.Number:
		return raw.String()
	case float64:
		return strconv.FormatFloat(raw, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(raw), 'f', -1, 32)
	case int:
		return strconv.Itoa(raw)
	case int64:
		return strconv.FormatInt(raw, 10)
	case bool:
		return strconv.FormatBool(raw)
	case []any:
		parts := make([]string, 0, len(raw))
		for _, item := range raw {
			if s := (FieldValue{Value: item}).Text(); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(raw)
		if err != nil {
			return fmt.Sprint(raw)
		}
		return string(b)
	}
}

// DocumentExtraction is the per-document output of the extraction collaborator.
// The engine treats it as read-only.
type DocumentExtraction struct {
	DocumentID   string                `json:"documentId"`
	DocumentType DocumentType          `json:"documentType"`
	Fields       map[string]FieldValue `json:"fields"`
}

// Labels returns field labels in a stable order.
func (d DocumentExtraction) Labels() []string {
	labels := make([]string, 0, len(d.Fields))
	for label := range d.Fields {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func (d *DocumentExtraction) UnmarshalJSON(data []byte) error {
	var wire struct {
		DocumentID   string          `json:"documentId"`
		DocumentType string          `json:"documentType"`
		Fields       json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	fields := make(map[string]FieldValue)
	if len(bytes.TrimSpace(wire.Fields)) > 0 && !bytes.Equal(bytes.TrimSpace(wire.Fields), []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(wire.Fields))
		dec.UseNumber()
		var tree map[string]any
		if err := dec.Decode(&tree); err != nil {
			return fmt.Errorf("decode fields: %w", err)
		}
		flattenFields("", tree, fields)
	}

	d.DocumentID = strings.TrimSpace(wire.DocumentID)
	d.DocumentType = ParseDocumentType(wire.DocumentType)
	d.Fields = fields
	return nil
}

func flattenFields(prefix string, tree map[string]any, out map[string]FieldValue) {
	for key, node := range tree {
		label := prefix + key
		obj, isObject := node.(map[string]any)
		if !isObject {
			out[label] = FieldValue{Value: node, Confidence: DefaultConfidence}
			continue
		}
		if leaf, ok := asLeaf(obj); ok {
			out[label] = leaf
			continue
		}
		flattenFields(label+".", obj, out)
	}
}

func asLeaf(obj map[string]any) (FieldValue, bool) {
	value, hasValue := obj["value"]
	if !hasValue {
		return FieldValue{}, false
	}
	for key := range obj {
		if key != "value" && key != "confidence" {
			return FieldValue{}, false
		}
	}
	confidence := DefaultConfidence
	if raw, ok := obj["confidence"]; ok {
		if n, ok := raw.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				confidence = ClampConfidence(f)
			}
		}
	}
	return FieldValue{Value: value, Confidence: confidence}, true
}

func ClampConfidence(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
