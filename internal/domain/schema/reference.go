package schema

import (
	"fmt"
	"strings"

	"satark-portal/internal/domain/model"
)

// Category 是 lead 分类（category_id）。
type Category struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Categories 是公开列表筛选用的分类。
var Categories = []Category{
	{ID: "terrorism", Label: "Terrorism"},
	{ID: "kidnapping", Label: "Kidnappings / Missing"},
	{ID: "cyber_crime", Label: "Cyber Crime"},
	{ID: "organized_crime", Label: "Organized Crime"},
	{ID: "drug_rackets", Label: "Drug Rackets"},
	{ID: "money_laundering", Label: "Money Laundering"},
	{ID: "corruption", Label: "Corruption"},
	{ID: "parental_kidnappings", Label: "Parental Kidnappings"},
	{ID: "human_trafficking", Label: "Human Trafficking"},
	{ID: "seeking_info", Label: "Seeking Information"},
	{ID: "other", Label: "Other"},
}

// CategoryLabel 找不到时返回 id 本身。
func CategoryLabel(id string) string {
	for _, c := range Categories {
		if strings.EqualFold(c.ID, id) {
			return c.Label
		}
	}
	return id
}

// PhysicalAttributes 是体貌特征的参考取值。
var PhysicalAttributes = map[string][]string{
	"sex":        {"Male", "Female", "Other", "Unknown"},
	"build":      {"Small", "Medium", "Athletic", "Heavy", "Obese"},
	"complexion": {"Fair", "Wheatish", "Dark", "Very Dark", "Albino"},
	"hair":       {"Black", "Brown", "Blonde", "Gray", "White", "Bald", "Red"},
	"eyes":       {"Black", "Brown", "Blue", "Green", "Gray", "Hazel"},
	"race":       {"Asian", "Black", "White", "Hispanic", "Middle Eastern", "Native American", "Pacific Islander", "Mixed", "Unknown"},
}

// NoticeTypeLabel 是状态在后台界面上的展示名。
var NoticeTypeLabel = map[model.Status]string{
	model.StatusSubmitted:   "General Intelligence (Draft)",
	model.StatusWanted:      "WANTED FUGITIVE (Red Corner)",
	model.StatusMissing:     "MISSING PERSON (Yellow Corner)",
	model.StatusAlert:       "PUBLIC SAFETY ALERT",
	model.StatusInfoSeeking: "Seeking Information (Blue Corner)",
}

// Division 是警务单位的大类。
type Division string

const (
	DivisionTerritorial    Division = "TERRITORIAL"
	DivisionSpecialized    Division = "SPECIALIZED"
	DivisionAdministrative Division = "ADMINISTRATIVE"
)

// Hierarchy 是内置的辖区清单，后端 /api/units/hierarchy 不可用时兜底。
var Hierarchy = map[Division][]string{
	DivisionTerritorial: {
		"Central District", "North District", "North-West District", "Rohini District",
		"Outer District", "Outer-North District", "East District", "North-East District",
		"Shahdara District", "South District", "South-East District", "South-West District",
		"West District", "Dwarka District", "New Delhi District",
	},
	DivisionSpecialized: {
		"IGI Airport Police", "Railway Police", "Metro Rail Police", "Crime Branch", "Special Cell",
		"Economic Offences Wing (EOW)", "Special Police Unit for Women and Children (SPUWAC)",
		"Cyber Crime Unit / IFSO", "Special Task Force (STF)", "Vigilance", "Security Unit",
		"Traffic Police", "Special Branch (Intelligence)", "Special Unit for North East Region (SPUNER)",
	},
	DivisionAdministrative: {
		"Police Headquarters (PHQ)", "Operations & Communication", "Police Control Room (PCR)",
		"Delhi Armed Police (DAP)", "Licensing Branch", "Training Division", "Provisioning & Logistics",
		"Legal Cell", "Welfare Unit", "Recruitment Cell", "Anti-Riot Cell", "Finger Print Bureau",
		"Missing Persons Squad",
	},
}

var divisionOrder = []Division{DivisionTerritorial, DivisionSpecialized, DivisionAdministrative}

// StationsFor 返回某单位下的示例派出所/科室列表（离线兜底数据）。
func StationsFor(unit string) []string {
	switch {
	case strings.Contains(unit, "Traffic"):
		return []string{"Traffic Circle HQ", "Challan Branch", "Accident Investigation Unit"}
	case strings.Contains(unit, "Crime"):
		return []string{"Inter-State Cell", "Anti-Extortion Cell", "SOS Unit", "Narcotics Cell"}
	case strings.Contains(unit, "Special Cell"):
		return []string{"Counter Intelligence", "Northern Range", "Southern Range", "New Delhi Range"}
	case strings.Contains(unit, "Airport"):
		return []string{"IGIA Terminal 3", "IGIA Terminal 1", "Cargo Complex"}
	}
	head := unit
	if f := strings.Fields(unit); len(f) > 0 {
		head = f[0]
	}
	return []string{
		fmt.Sprintf("%s Head Quarters", head), "Cyber Cell",
		"Civil Lines", "Model Town", "Kotwali", "Parliament Street",
	}
}

// FallbackHierarchy 把内置清单转成与后端相同的结构。
// 离线数据没有真实 UUID，id 直接用名称；提交时由调用方回落到默认辖区。
func FallbackHierarchy() model.UnitHierarchy {
	var h model.UnitHierarchy
	for _, div := range divisionOrder {
		for _, name := range Hierarchy[div] {
			h.Districts = append(h.Districts, model.Unit{ID: name, Name: name})
			for _, st := range StationsFor(name) {
				h.PoliceStations = append(h.PoliceStations, model.Unit{ID: name + "/" + st, Name: st, DistrictID: name})
			}
		}
	}
	return h
}
