package identifier

import "slices"

// IPhones returns the iPhone variants in ids, in order.
func IPhones(ids []Identifier) []IPhoneVariant {
	var out []IPhoneVariant
	for _, id := range ids {
		if v, ok := id.IPhone(); ok {
			out = append(out, v)
		}
	}
	return out
}

// IPads returns the iPad variants in ids, in order.
func IPads(ids []Identifier) []IPadVariant {
	var out []IPadVariant
	for _, id := range ids {
		if v, ok := id.IPad(); ok {
			out = append(out, v)
		}
	}
	return out
}

// NewestIPhone returns the newest iPhone in ids accepted by every filter.
func NewestIPhone(ids []Identifier, filters ...func(IPhoneVariant) bool) (IPhoneVariant, bool) {
	return newest(IPhones(ids), CompareIPhones, filters)
}

// NewestIPad returns the newest iPad in ids accepted by every filter.
//
//	pro, ok := identifier.NewestIPad(names, func(v identifier.IPadVariant) bool {
//		_, isPro := v.(identifier.IPadPro)
//		return isPro
//	})
func NewestIPad(ids []Identifier, filters ...func(IPadVariant) bool) (IPadVariant, bool) {
	return newest(IPads(ids), CompareIPads, filters)
}

func newest[T any](vs []T, cmp func(a, b T) int, filters []func(T) bool) (T, bool) {
	vs = slices.DeleteFunc(vs, func(v T) bool {
		for _, keep := range filters {
			if !keep(v) {
				return true
			}
		}
		return false
	})
	if len(vs) == 0 {
		var zero T
		return zero, false
	}
	return slices.MaxFunc(vs, cmp), true
}

// Sort orders ids in place, oldest first. Equal identifiers keep their
// relative order.
func Sort(ids []Identifier) {
	slices.SortStableFunc(ids, Compare)
}
