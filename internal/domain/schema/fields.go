// Package schema 是各类通告的字段表（纯声明数据）。
// 给某类通告加字段只需要改这里的表，渲染、解码、预览都从表驱动。
package schema

import "satark-portal/internal/domain/model"

func opts(values ...string) []model.Option {
	out := make([]model.Option, 0, len(values))
	for _, v := range values {
		out = append(out, model.Option{Value: v})
	}
	return out
}

var wantedSections = []model.Section{
	{Key: "personalDetails", Title: "Personal Details", Fields: []model.Field{
		{Name: "name", Label: "Full Name", Type: model.FieldText, Required: true},
		{Name: "alias", Label: "Alias / Nickname", Type: model.FieldText, Placeholder: `e.g., "Vicky Don, VK"`},
		{Name: "dob", Label: "Date of Birth", Type: model.FieldText, Placeholder: "DD/MM/YYYY or Age"},
		{Name: "pob", Label: "Place of Birth", Type: model.FieldText},
		{Name: "place_of_birth", Label: "Full Place of Birth", Type: model.FieldText, Placeholder: "City, State, Country"},
		{Name: "nationality", Label: "Nationality", Type: model.FieldText},
		{Name: "sex", Label: "Sex", Type: model.FieldSelect, Options: opts("Male", "Female", "Other")},
		{Name: "race", Label: "Race / Ethnicity", Type: model.FieldSelect, Options: opts(
			"Asian (South Asian)", "Asian (East Asian)", "Black", "White", "Hispanic", "Middle Eastern", "Mixed", "Other")},
	}},
	{Key: "physicalDetails", Title: "Physical Attributes", Fields: []model.Field{
		{Name: "height", Label: "Height", Type: model.FieldText, Placeholder: `e.g., 5'11" or 180 cm`},
		{Name: "weight", Label: "Weight", Type: model.FieldText, Placeholder: "e.g., 85 kg or 187 lbs"},
		{Name: "build", Label: "Build", Type: model.FieldSelect, Options: opts("Slim", "Medium", "Athletic", "Muscular", "Heavy", "Obese")},
		{Name: "complexion", Label: "Complexion", Type: model.FieldSelect, Options: opts("Fair", "Wheatish", "Dusky", "Dark")},
		{Name: "eyes", Label: "Eyes", Type: model.FieldText},
		{Name: "hair", Label: "Hair", Type: model.FieldText},
	}},
	{Key: "crimeDetails", Title: "Crime & Warning Information", Fields: []model.Field{
		{Name: "category", Label: "Crime Category", Type: model.FieldSelect, Required: true, Options: []model.Option{
			{Value: "terrorism", Label: "Terrorism"},
			{Value: "kidnapping", Label: "Kidnapping / Abduction"},
			{Value: "cyber", Label: "Cyber Crime"},
			{Value: "organized", Label: "Organized Crime"},
			{Value: "drugs", Label: "Narcotics / Drugs"},
			{Value: "laundering", Label: "Money Laundering"},
			{Value: "corruption", Label: "Corruption"},
			{Value: "trafficking", Label: "Human Trafficking"},
			{Value: "other", Label: "Other/General"},
		}},
		{Name: "charges", Label: "Criminal Charges", Type: model.FieldTags, Required: true, Placeholder: "Enter each charge and press Enter"},
		{Name: "crime_date", Label: "Crime Date", Type: model.FieldText, Placeholder: "DD/MM/YYYY"},
		{Name: "crime_location", Label: "Crime Location", Type: model.FieldTextarea, Rows: 2, Placeholder: "Full address and description of crime scene"},
		{Name: "crime_description", Label: "Crime Narrative", Type: model.FieldTextarea, Required: true, Rows: 5, FullWidth: true},
	}},
	{Key: "identifyingMarks", Title: "Identifying Marks & Tattoos", Fields: []model.Field{
		{Name: "scars", Label: "Scars (Brief)", Type: model.FieldText, Placeholder: "e.g., Scar on left cheek"},
		{Name: "scars_marks", Label: "Detailed Scars & Marks", Type: model.FieldTextarea, Rows: 3, Placeholder: "Detailed description of all visible scars, marks, or deformities"},
		{Name: "tattoo_descriptions", Label: "Tattoo Descriptions", Type: model.FieldTags, Placeholder: `Enter tattoo description and press Enter. e.g., "Skull tattoo on right forearm"`},
	}},
	{Key: "warrantDetails", Title: "Warrant Information", Fields: []model.Field{
		{Name: "warrant_date", Label: "Warrant Issue Date", Type: model.FieldText, Placeholder: "DD/MM/YYYY"},
		{Name: "warrant_court", Label: "Issuing Court", Type: model.FieldText, Placeholder: "e.g., Tis Hazari District Court"},
		{Name: "warrant_number", Label: "Warrant Number", Type: model.FieldText, Placeholder: "e.g., WRT/234/2023/TH"},
		{Name: "unlawful_flight_date", Label: "Unlawful Flight Date (if applicable)", Type: model.FieldText, Placeholder: "DD/MM/YYYY"},
	}},
	{Key: "operationalInfo", Title: "Operational Warnings", Fields: []model.Field{
		{Name: "field_office", Label: "Responsible Field Office", Type: model.FieldText, Placeholder: "e.g., Crime Branch - Karol Bagh"},
		{Name: "armed_and_dangerous", Label: "Armed and Dangerous", Type: model.FieldCheckbox},
		{Name: "special_cautions", Label: "Special Cautions / Warnings", Type: model.FieldTextarea, Rows: 3, Placeholder: "Detailed operational warnings for law enforcement"},
		{Name: "caution", Label: "Brief Caution (Public Display)", Type: model.FieldTextarea, Rows: 2, Placeholder: `Public-facing warning, e.g., "ARMED AND DANGEROUS"`},
	}},
	{Key: "reward", Title: "Reward & Bounty", Fields: []model.Field{
		{Name: "reward_amount", Label: "Cash Bounty Amount (₹)", Type: model.FieldText, Placeholder: "e.g. ₹50,000", FullWidth: true,
			HelpText: "Enter the approved reward amount for information leading to arrest. Leave blank if not applicable."},
	}},
	{Key: "knownTies", Title: "Known Ties & Last Seen", Fields: []model.Field{
		{Name: "ties_locations", Label: "Known Ties / Locations", Type: model.FieldTags, Placeholder: `Enter location and press Enter, e.g., "Dubai, UAE"`},
		{Name: "last_seen_date", Label: "Last Seen Date", Type: model.FieldText, Placeholder: "DD/MM/YYYY"},
		{Name: "last_seen_location", Label: "Last Seen Location", Type: model.FieldTextarea, Rows: 2, Placeholder: "Detailed description of last sighting"},
	}},
	{Key: "backgroundRemarks", Title: "Background & Intelligence Remarks", Fields: []model.Field{
		{Name: "remarks", Label: "Background & Intelligence Remarks", Type: model.FieldTextarea, Rows: 5, FullWidth: true,
			Placeholder: "Gang affiliations, criminal history, behavioral patterns, known associates, etc."},
		{Name: "risk", Label: "Overall Risk Level", Type: model.FieldSelect, Options: opts("LOW", "MEDIUM", "HIGH", "EXTREME")},
	}},
}

var missingSections = []model.Section{
	{Key: "personalDetails", Title: "Personal Details", Fields: []model.Field{
		{Name: "name", Label: "Name", Type: model.FieldText, Required: true},
		{Name: "category", Label: "Case Category", Type: model.FieldSelect, Required: true, Options: []model.Option{
			{Value: "kidnapping", Label: "Kidnapping / Missing"},
			{Value: "parental_kidnapping", Label: "Parental Kidnapping"},
			{Value: "trafficking", Label: "Human Trafficking"},
			{Value: "other", Label: "Runaway / Other"},
		}},
		{Name: "guardian_name", Label: "Guardian Name", Type: model.FieldText},
		{Name: "guardian_occupation", Label: "Guardian Occupation", Type: model.FieldText},
		{Name: "dob", Label: "Date of Birth", Type: model.FieldDate},
		{Name: "sex", Label: "Sex", Type: model.FieldSelect, Options: opts("Male", "Female", "Other")},
	}},
	{Key: "physicalDetails", Title: "Physical Details", Fields: []model.Field{
		{Name: "height", Label: "Height", Type: model.FieldText, Placeholder: `e.g., 5'4"`},
		{Name: "weight", Label: "Weight", Type: model.FieldText, Placeholder: "e.g., 60 kg"},
		{Name: "build", Label: "Build", Type: model.FieldSelect, Options: opts("Thin", "Normal", "Heavy", "Athletic")},
		{Name: "complexion", Label: "Complexion", Type: model.FieldSelect, Options: opts("Fair", "Wheatish", "Dark")},
		{Name: "eyes", Label: "Eyes", Type: model.FieldText, Placeholder: "Color, Shape"},
		{Name: "hair", Label: "Hair", Type: model.FieldText, Placeholder: "Color, Style"},
	}},
	{Key: "dressDetails", Title: "Dress Description", Fields: []model.Field{
		{Name: "dress_description", Label: "Dress Description", Type: model.FieldTextarea, Rows: 3, Placeholder: "Details of clothing, color, etc."},
		{Name: "belongings", Label: "Other Belongings", Type: model.FieldText, Placeholder: "Bag, watch, jewelry, etc."},
	}},
	{Key: "incidentDetails", Title: "Incident Details", Fields: []model.Field{
		{Name: "missing_from", Label: "Missing From (Full Address)", Type: model.FieldTextarea, Required: true, Rows: 2},
		{Name: "missing_date", Label: "Date Missing", Type: model.FieldDate, Required: true},
		{Name: "missing_time", Label: "Time Missing", Type: model.FieldText, Placeholder: "e.g., Approx 4 PM"},
	}},
	{Key: "lastSeenDetails", Title: "Disappearance & Last Seen Details", Fields: []model.Field{
		{Name: "last_seen_date", Label: "Last Seen Date", Type: model.FieldDate},
		{Name: "last_seen_time", Label: "Last Seen Time", Type: model.FieldText},
		{Name: "last_seen_location", Label: "Last Seen Location", Type: model.FieldTextarea, Rows: 2},
	}},
	{Key: "reward", Title: "Reward Information", Fields: []model.Field{
		{Name: "reward_amount", Label: "Reward Amount (₹)", Type: model.FieldText, Placeholder: "e.g. ₹25,000", FullWidth: true,
			HelpText: "Enter approved reward for information leading to recovery."},
	}},
	{Key: "contactInfo", Title: "Guardian / Contact Information", Fields: []model.Field{
		{Name: "guardian_contact", Label: "Guardian Phone", Type: model.FieldText, Placeholder: "Mobile Number"},
		{Name: "guardian_address", Label: "Guardian Address", Type: model.FieldTextarea, Rows: 2},
	}},
	{Key: "jurisdictionDetails", Title: "Jurisdiction & FIR Details", Fields: []model.Field{
		{Name: "police_station", Label: "Police Station / Unit", Type: model.FieldText, Required: true},
		{Name: "district", Label: "District", Type: model.FieldText},
		{Name: "fir_number", Label: "FIR / DD No.", Type: model.FieldText},
		{Name: "fir_date", Label: "FIR / DD Date", Type: model.FieldDate},
	}},
	{Key: "additionalDetails", Title: "Additional Information", Fields: []model.Field{
		{Name: "physical_deformity", Label: "Physical Deformity / Scars", Type: model.FieldTextarea, Rows: 2},
		{Name: "remarks", Label: "Additional Remarks", Type: model.FieldTextarea, Rows: 3},
	}},
}

var alertSections = []model.Section{
	{Key: "alertDetails", Title: "Alert Details", Fields: []model.Field{
		{Name: "title", Label: "Alert Title", Type: model.FieldText, Required: true},
		{Name: "category", Label: "Alert Category", Type: model.FieldSelect, Required: true, Options: []model.Option{
			{Value: "other", Label: "Public Safety (General)"},
			{Value: "terrorism", Label: "Terror Threat"},
			{Value: "organized", Label: "Civil Disturbance"},
			{Value: "cyber", Label: "Cyber Threat"},
		}},
		{Name: "description", Label: "Alert Description", Type: model.FieldTextarea, Required: true, FullWidth: true},
		{Name: "severity", Label: "Severity", Type: model.FieldSelect, Options: opts("Low", "Medium", "High", "Critical")},
		{Name: "link_url", Label: "Social Media Link (Optional)", Type: model.FieldText, Placeholder: "e.g. https://x.com/DelhiPolice/status/..."},
	}},
}

var seekingSections = []model.Section{
	{Key: "incidentDetails", Title: "Incident Information", Fields: []model.Field{
		{Name: "incident_title", Label: "Incident Title", Type: model.FieldText, Required: true},
		{Name: "incident_description", Label: "Incident Description", Type: model.FieldTextarea, Required: true, Rows: 4},
		{Name: "incident_date", Label: "Incident Date", Type: model.FieldDate},
		{Name: "incident_location", Label: "Incident Location", Type: model.FieldText},
	}},
	{Key: "seekingInfo", Title: "Information Sought & Contact", Fields: []model.Field{
		{Name: "seeking_description", Label: "What Information is Needed?", Type: model.FieldTextarea, Required: true, Rows: 4, Placeholder: "Specific details you are looking for..."},
		{Name: "contact_person", Label: "Primary Contact Person", Type: model.FieldText},
		{Name: "contact_number", Label: "Contact Number / Extension", Type: model.FieldText},
	}},
}

var generalSections = []model.Section{
	{Key: "basicInfo", Title: "Basic Information", Fields: []model.Field{
		{Name: "title", Label: "Intelligence Title", Type: model.FieldText, Required: true, Placeholder: "Brief summary of the intelligence"},
		{Name: "category", Label: "Intel Category", Type: model.FieldSelect, Options: opts("Security", "Criminal", "Political", "Cyber", "Economic", "Other")},
		{Name: "priority", Label: "Confidence Level", Type: model.FieldSelect, Options: opts("UNVERIFIED", "LOW", "MEDIUM", "HIGH", "CONFIRMED")},
	}},
	{Key: "description", Title: "Description & Location", Fields: []model.Field{
		{Name: "description", Label: "Detailed Intelligence Narrative", Type: model.FieldTextarea, Required: true, Rows: 6, FullWidth: true},
		{Name: "location", Label: "Primary Location of Interest", Type: model.FieldText, Placeholder: "Address, coordinates, or landmark"},
		{Name: "observation_time", Label: "Time of Observation", Type: model.FieldDatetimeLocal},
	}},
	{Key: "subjectInfo", Title: "Subject Information (Optional)", Fields: []model.Field{
		{Name: "subject_name", Label: "Subject Name / Alias", Type: model.FieldText, Placeholder: "Name or unknown"},
		{Name: "subject_description", Label: "Subject Description", Type: model.FieldTextarea, Rows: 3, Placeholder: "Physical appearance, clothing, behavior..."},
		{Name: "vehicle_details", Label: "Vehicle Details", Type: model.FieldText, Placeholder: "Make, Model, License Plate, Color"},
	}},
	{Key: "options", Title: "Publishing Options", Fields: []model.Field{
		{Name: "is_public", Label: "Publish to Public Portal", Type: model.FieldCheckbox, Default: false},
		{Name: "is_anonymous", Label: "Keep Reporter Anonymous", Type: model.FieldCheckbox, Default: true},
	}},
}

// Sections 返回某类通告的分组字段表。返回值是副本，调用方可以随意修改。
func Sections(n model.Notice) []model.Section {
	var src []model.Section
	switch n {
	case model.NoticeWanted:
		src = wantedSections
	case model.NoticeMissing:
		src = missingSections
	case model.NoticeAlert:
		src = alertSections
	case model.NoticeSeeking:
		src = seekingSections
	case model.NoticeGeneral:
		src = generalSections
	default:
		return nil
	}

	out := make([]model.Section, len(src))
	for i, s := range src {
		out[i] = s
		out[i].Fields = append([]model.Field(nil), s.Fields...)
	}
	return out
}

// Fields 按顺序展开某类通告的全部字段。
func Fields(n model.Notice) []model.Field {
	var out []model.Field
	for _, s := range Sections(n) {
		out = append(out, s.Fields...)
	}
	return out
}

// Defaults 返回带 Default 的字段初值，用于新建草稿。
func Defaults(n model.Notice) model.FormData {
	data := model.FormData{}
	for _, f := range Fields(n) {
		if f.Default != nil {
			data[f.Name] = f.Default
		}
	}
	return data
}
