package luminance

import "github.com/go-theft-craft/dynlights/internal/dynlight/source"

// EntityState is what the luminance rules need to know about an entity.
type EntityState struct {
	OnFire    bool
	Submerged bool
	Equipped  []string // item ids in hand, off hand and armour slots
	Self      bool     // the entity is the viewer
}

// Rules computes entity luminance from the item table and the user toggles.
type Rules struct {
	Table               *Table
	WaterSensitiveCheck bool
	EntitiesLightSource bool
	SelfLightSource     bool
}

// EntityLuminance returns the light level an entity emits. Burning entities
// are fully lit; otherwise the brightest equipped item wins.
func (r *Rules) EntityLuminance(e EntityState) int {
	if !r.EntitiesLightSource || (e.Self && !r.SelfLightSource) {
		return 0
	}
	if e.OnFire {
		return source.MaxLuminance
	}
	submerged := e.Submerged && r.WaterSensitiveCheck
	best := 0
	for _, id := range e.Equipped {
		best = max(best, r.Table.ItemLuminance(id, submerged))
		if best == source.MaxLuminance {
			break
		}
	}
	return best
}
