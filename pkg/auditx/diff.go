package auditx

import "reflect"

// Change is the before and after value of one field.
type Change struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// Diff returns the masked changes between before and after. Every key
// present in either map whose value differs is included; equal keys are
// omitted. A key missing on one side has a nil value there.
func Diff(before, after map[string]any) map[string]Change {
	diff := make(map[string]Change)

	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	for k := range keys {
		b, a := before[k], after[k]
		if reflect.DeepEqual(b, a) {
			continue
		}
		if IsSensitiveKey(k) {
			diff[k] = Change{Before: MaskedValue, After: MaskedValue}
			continue
		}
		diff[k] = Change{Before: Mask(b), After: Mask(a)}
	}

	return diff
}

// DiffValues converts before and after with ToMap and diffs them.
func DiffValues(before, after any) (map[string]Change, error) {
	b, err := ToMap(before)
	if err != nil {
		return nil, err
	}
	a, err := ToMap(after)
	if err != nil {
		return nil, err
	}
	return Diff(b, a), nil
}
