package core

// IterationStatus describes the current element of a forEach.
//
// Begin, End and Step are nil when the tag didn't specify them.
type IterationStatus struct {
	Index   int         `json:"index"`
	First   bool        `json:"first"`
	Last    bool        `json:"last"`
	Begin   *int        `json:"begin,omitempty"`
	End     *int        `json:"end,omitempty"`
	Step    *int        `json:"step,omitempty"`
	Current interface{} `json:"current"`
}

// Count is the one-based position of the element among the elements
// that were actually visited.
func (s IterationStatus) Count() int {
	if s.Step != nil && *s.Step != 1 {
		return s.Index/(*s.Step) + 1
	}
	return s.Index + 1
}

// MapEntry is the loop value for an element of a map.
type MapEntry struct {
	Key   interface{} `json:"key"`
	Value interface{} `json:"value"`
}

// asMapEntry recovers a MapEntry from the generic form it takes
// after a trip through JSON.
func asMapEntry(x interface{}) MapEntry {
	switch vv := x.(type) {
	case MapEntry:
		return vv
	case *MapEntry:
		return *vv
	case map[string]interface{}:
		return MapEntry{
			Key:   vv["key"],
			Value: vv["value"],
		}
	}
	return MapEntry{Value: x}
}
