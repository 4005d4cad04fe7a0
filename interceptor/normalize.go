package interceptor

import "strconv"

// Row metadata added to list members.
const (
	RowIDKey   = "__id"
	RowCRUDKey = "__crud"
	RowRead    = "R"
)

// Normalize tags every object that is a member of a nested array with its index
// (as a string) under [RowIDKey] and [RowCRUDKey]="R". Members of a top-level array
// are not tagged themselves; arrays found inside them are. data is modified in place.
func Normalize(data any) {
	switch v := data.(type) {
	case map[string]any:
		for _, item := range v {
			tagRows(item)
		}
	case []any:
		for _, item := range v {
			tagRows(item)
		}
	}
}

func tagRows(data any) {
	switch v := data.(type) {
	case []any:
		for i, item := range v {
			row, ok := item.(map[string]any)
			if !ok || row == nil {
				tagRows(item)
				continue
			}
			row[RowIDKey] = strconv.Itoa(i)
			row[RowCRUDKey] = RowRead
			for _, field := range row {
				tagRows(field)
			}
		}
	case map[string]any:
		for _, field := range v {
			tagRows(field)
		}
	}
}
