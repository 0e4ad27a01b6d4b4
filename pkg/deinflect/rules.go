package deinflect

import "strings"

// Rules is a set of conjugation classes, one bit per class.
// Zero means no class constraint applies.
type Rules uint32

const (
	RuleV1   Rules = 1 << iota // ichidan verb
	RuleV5                     // godan verb
	RuleVS                     // suru verb
	RuleVK                     // kuru verb
	RuleVZ                     // zuru verb
	RuleAdjI                   // i-adjective
	RuleIru                    // intermediate -iru ending
)

// ruleTypes maps class names, as used by dictionaries and rule tables, to
// their flag. Order matters for Names.
var ruleTypes = []struct {
	name string
	flag Rules
}{
	{"v1", RuleV1},
	{"v5", RuleV5},
	{"vs", RuleVS},
	{"vk", RuleVK},
	{"vz", RuleVZ},
	{"adj-i", RuleAdjI},
	{"iru", RuleIru},
}

// RuleFlags combines class names into a bitmask. Unknown names are ignored.
func RuleFlags(names []string) Rules {
	var value Rules
	for _, name := range names {
		for _, rt := range ruleTypes {
			if rt.name == name {
				value |= rt.flag
				break
			}
		}
	}
	return value
}

// Intersects reports whether r and other share at least one class.
func (r Rules) Intersects(other Rules) bool {
	return r&other != 0
}

// Names returns the class names set in r.
func (r Rules) Names() []string {
	var names []string
	for _, rt := range ruleTypes {
		if r&rt.flag != 0 {
			names = append(names, rt.name)
		}
	}
	return names
}

func (r Rules) String() string {
	if r == 0 {
		return "none"
	}
	return strings.Join(r.Names(), "|")
}
