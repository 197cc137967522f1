package domain

// Wildcard accepts every record id.
const Wildcard = "*"

// AllowList is the set of upstream record ids that survive normalization.
type AllowList struct {
	all bool
	ids map[string]struct{}
}

func NewAllowList(ids ...string) AllowList {
	a := AllowList{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id == Wildcard {
			a.all = true
			continue
		}
		if id != "" {
			a.ids[id] = struct{}{}
		}
	}
	return a
}

func (a AllowList) Allows(id string) bool {
	if a.all {
		return true
	}
	if id == "" {
		return false
	}
	_, ok := a.ids[id]
	return ok
}
