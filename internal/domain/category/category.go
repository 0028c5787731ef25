// Package category defines the closed enumerations of the civic issue
// domain: issue categories, priorities, prediction timeframes, and risk
// levels. Unrecognized labels are engineering errors, never silent
// defaults.
package category

import (
	"fmt"
	"strings"
)

// Category identifies one of the nine civic issue categories.
type Category int

const (
	RoadPothole Category = iota
	Streetlight
	WasteManagement
	WaterSupply
	SewageDrainage
	PublicSafety
	ParksRecreation
	TrafficManagement
	Other
)

var categoryNames = [...]string{
	RoadPothole:       "Road & Pothole Issues",
	Streetlight:       "Streetlight Problems",
	WasteManagement:   "Waste Management",
	WaterSupply:       "Water Supply",
	SewageDrainage:    "Sewage & Drainage",
	PublicSafety:      "Public Safety",
	ParksRecreation:   "Parks & Recreation",
	TrafficManagement: "Traffic Management",
	Other:             "Other",
}

// All returns every category in canonical order. The order is load-bearing:
// it fixes the position of the one-hot indicator columns in the feature
// schema.
func All() []Category {
	out := make([]Category, len(categoryNames))
	for i := range categoryNames {
		out[i] = Category(i)
	}
	return out
}

// String returns the human-readable label.
func (c Category) String() string {
	if int(c) < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Valid reports whether c is a member of the closed set.
func (c Category) Valid() bool {
	return int(c) >= 0 && int(c) < len(categoryNames)
}

// Parse maps a label back to its Category. Unknown labels are an error.
func Parse(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// Priority is the closed set of issue priorities.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

var priorityNames = [...]string{
	PriorityLow:    "low",
	PriorityMedium: "medium",
	PriorityHigh:   "high",
	PriorityUrgent: "urgent",
}

// AllPriorities returns every priority in ascending order of urgency.
func AllPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

func (p Priority) String() string {
	if int(p) < 0 || int(p) >= len(priorityNames) {
		return fmt.Sprintf("Priority(%d)", int(p))
	}
	return priorityNames[p]
}

// ParsePriority maps a label to its Priority. Unknown labels are an error.
func ParsePriority(s string) (Priority, error) {
	for i, name := range priorityNames {
		if name == strings.ToLower(strings.TrimSpace(s)) {
			return Priority(i), nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

// Timeframe is the closed set of prediction horizons.
type Timeframe string

const (
	OneDay     Timeframe = "1_day"
	SevenDays  Timeframe = "7_days"
	ThirtyDays Timeframe = "30_days"
)

// ParseTimeframe validates a timeframe label. An empty string defaults to
// the seven day horizon; anything else unknown is an error.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case OneDay, SevenDays, ThirtyDays:
		return Timeframe(s), nil
	case "":
		return SevenDays, nil
	}
	return "", fmt.Errorf("unknown timeframe %q", s)
}

// Days returns the horizon length in days.
func (t Timeframe) Days() int {
	switch t {
	case OneDay:
		return 1
	case ThirtyDays:
		return 30
	default:
		return 7
	}
}

// RiskLevel classifies a risk score into one of four bands.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Risk level band boundaries.
const (
	mediumRiskFloor   = 0.4
	highRiskFloor     = 0.6
	criticalRiskFloor = 0.8
)

// LevelFor maps a risk score to its band. Boundaries are inclusive on the
// upper band: 0.6 is high, 0.8 is critical.
func LevelFor(score float64) RiskLevel {
	switch {
	case score >= criticalRiskFloor:
		return RiskCritical
	case score >= highRiskFloor:
		return RiskHigh
	case score >= mediumRiskFloor:
		return RiskMedium
	default:
		return RiskLow
	}
}

var actionMap = map[Category][]string{
	RoadPothole:       {"Inspect roads", "Schedule repairs", "Traffic management"},
	WaterSupply:       {"Check water pressure", "Monitor quality", "Emergency backup"},
	WasteManagement:   {"Schedule collection", "Monitor bins", "Public awareness"},
	Streetlight:       {"Check electrical systems", "Replace bulbs", "Schedule maintenance"},
	SewageDrainage:    {"Inspect drains", "Clear blockages", "System maintenance"},
	PublicSafety:      {"Increase patrols", "Community engagement", "Emergency planning"},
	ParksRecreation:   {"Maintenance check", "Safety inspection", "Public notification"},
	TrafficManagement: {"Traffic monitoring", "Signal optimization", "Route planning"},
}

// RecommendedActions returns the operational playbook for a category.
func RecommendedActions(c Category) []string {
	if actions, ok := actionMap[c]; ok {
		return actions
	}
	return []string{"Monitor situation", "Prepare response plan"}
}

// RiskActions returns the playbook for a given overall risk score.
func RiskActions(score float64) []string {
	switch {
	case score >= criticalRiskFloor:
		return []string{"Immediate action required", "Deploy emergency resources", "Public alert"}
	case score >= highRiskFloor:
		return []string{"High priority monitoring", "Prepare response team", "Preventive measures"}
	case score >= mediumRiskFloor:
		return []string{"Regular monitoring", "Schedule inspections", "Maintenance planning"}
	default:
		return []string{"Routine monitoring", "Standard procedures"}
	}
}
