package mapping

import (
	"strings"

	"github.com/bechidu/partner-sync-ai/internal/canonical"
)

// Rule matches a normalized field name against keyword lists. Any fires on
// the first substring hit, All requires every listed substring, Exact only
// accepts a whole-name match. Rules are evaluated in declaration order and
// the first hit wins.
type Rule struct {
	Any        []string
	All        []string
	Exact      []string
	Target     string
	Confidence float64
}

// rules mirror the field vocabulary seen across partner logistics exports.
// Order matters: tracking beats the generic "to"/"name" catch-alls lower
// down.
var rules = []Rule{
	{Any: []string{"awb", "airwaybill", "tracking", "awbno", "awbnumber"}, Target: "tracking_id", Confidence: 0.95},
	{Exact: []string{"status", "currentstatus", "eventcode"}, Target: "status", Confidence: 0.9},
	{Any: []string{"date", "time", "ts", "timestamp"}, All: []string{"status"}, Target: "status_timestamp", Confidence: 0.85},
	{Any: []string{"pickupdate"}, Target: "pickup_date", Confidence: 0.85},
	{Any: []string{"fromcity", "origincity", "origin"}, Target: "origin.city", Confidence: 0.8},
	{Any: []string{"tocity", "destinationcity", "destcity", "to"}, Target: "destination.city", Confidence: 0.8},
	{Any: []string{"weight"}, Target: "weight_kg", Confidence: 0.85},
	{Any: []string{"length", "lcm", "lengthcm"}, Target: "dimensions_cm.l", Confidence: 0.75},
	{Any: []string{"width", "wcm", "widthcm"}, Target: "dimensions_cm.w", Confidence: 0.75},
	{Any: []string{"height", "hcm", "heightcm"}, Target: "dimensions_cm.h", Confidence: 0.75},
	{Any: []string{"service", "servicetype"}, Target: "service_type", Confidence: 0.8},
	{Any: []string{"receivername", "name", "contactname"}, Target: "customer_contact.name", Confidence: 0.7},
	{Any: []string{"receiverphone", "phone", "contactphone"}, Target: "customer_contact.phone", Confidence: 0.7},
	{Any: []string{"email"}, Target: "customer_contact.email", Confidence: 0.8},
}

// MapField resolves one partner field name to a canonical path. The second
// return is false when no rule matched.
func MapField(name string) (string, float64, bool) {
	key := matchKey(name)
	if key == "" {
		return "", 0, false
	}
	for _, r := range rules {
		if r.matches(key) {
			return r.Target, r.Confidence, true
		}
	}
	return "", 0, false
}

func (r Rule) matches(key string) bool {
	for _, e := range r.Exact {
		if key == e {
			return true
		}
	}
	if len(r.Any) == 0 {
		return false
	}
	hit := false
	for _, k := range r.Any {
		if strings.Contains(key, k) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	for _, k := range r.All {
		if !strings.Contains(key, k) {
			return false
		}
	}
	return true
}

// Suggest runs the rule table over every field and returns mapping entries
// for the ones that matched, preserving input order. Fields no rule
// recognizes are left for a human or the model to place.
func Suggest(fields []string) canonical.MappingSet {
	var out canonical.MappingSet
	for _, f := range fields {
		target, conf, ok := MapField(f)
		if !ok {
			continue
		}
		out = append(out, canonical.MappingEntry{
			SourceField:   f,
			CanonicalPath: target,
			Confidence:    conf,
		})
	}
	return out
}
