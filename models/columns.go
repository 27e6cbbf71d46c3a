package models

const (
	ColumnSku             = "sku"
	ColumnProductName     = "product_name"
	ColumnMatchedName     = "matched_name"
	ColumnBarcode         = "barcode"
	ColumnConfidenceScore = "confidence_score"

	ColumnProcessed           = "processed"
	ColumnProcessing          = "processing"
	ColumnAssignedTo          = "assigned_to"
	ColumnProcessingTimestamp = "processing_timestamp"
)

// FinalizedColumns is the fixed output column set of the finalized table.
var FinalizedColumns = []string{
	"id", "handle", ColumnSku, "composite_name", "composite_sku", "composite_quantity",
	ColumnProductName, ColumnMatchedName, ColumnConfidenceScore, "description",
	"product_category", "variant_option_one_name", "variant_option_one_value",
	"variant_option_two_name", "variant_option_two_value", "variant_option_three_name",
	"variant_option_three_value", "tags", "supply_price", "retail_price",
	"tax_name", "tax_value", "account_code", "account_code_purchase",
	"brand_name", "supplier_name", "supplier_code", "active",
	"track_inventory", "inventory_main_outlet", "reorder_point_main_outlet",
	"restock_level_main_outlet", ColumnBarcode,
}

// WorkflowColumns exist only in the pending table.
var WorkflowColumns = []string{
	ColumnProcessed, ColumnProcessing, ColumnAssignedTo, ColumnProcessingTimestamp,
}

// PendingColumns is the canonical column set of an empty pending table.
var PendingColumns = append(append([]string{}, FinalizedColumns...), WorkflowColumns...)

func isWorkflowColumn(col string) bool {
	for _, c := range WorkflowColumns {
		if c == col {
			return true
		}
	}
	return false
}
