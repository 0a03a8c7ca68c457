package canvas

import (
	"html/template"
	"strings"

	"satark-portal/internal/domain/model"
)

// WantedView 是通缉令。
type WantedView struct {
	Base
	Name        string
	Alias       string
	Stats       []Item
	Bounty      string
	ScarsMarks  string
	Caution     string // 非空时显示黑色警示条
	Identity    []Item
	Physical    []Item
	Crime       []Item
	Charges     []string
	Narrative   template.HTML
	NarrativeMD string
	Warrant     []Item // 没有令状信息时为空
	Armed       bool
	Operational string
	FieldOffice string
	LastSeen    []Item
	Background  string
}

func (b *Builder) wanted(base Base, l model.Lead, d model.Details) *WantedView {
	v := &WantedView{
		Base:        base,
		Name:        orText(d.String("name"), "UNKNOWN SUBJECT"),
		Alias:       d.String("alias", "aliases"),
		ScarsMarks:  d.String("scars_marks", "scars"),
		Armed:       d.Bool("armed_and_dangerous"),
		FieldOffice: d.String("field_office"),
		Background:  d.String("background_remarks", "remarks"),
		Charges:     d.Strings("charges"),
	}

	dob := d.String("dob")
	if y, _, ok := strings.Cut(dob, "-"); ok {
		dob = y
	}
	v.Stats = []Item{
		{Label: "Height", Value: d.String("height")},
		{Label: "Weight", Value: d.String("weight")},
		{Label: "Sex", Value: d.String("sex", "gender")},
		{Label: "Hair", Value: d.String("hair", "hair_color")},
		{Label: "Eyes", Value: d.String("eyes", "eye_color")},
		{Label: "DOB", Value: dob},
	}

	switch {
	case d.String("bounty_amount") != "":
		v.Bounty = Reward(d.String("bounty_amount"))
	case l.HasActiveReward():
		v.Bounty = Reward(string(l.RewardAmount))
	case d.String("reward_amount") != "":
		v.Bounty = Reward(d.String("reward_amount"))
	}

	if v.Armed || d.String("brief_caution", "caution") != "" {
		v.Caution = orText(d.String("brief_caution", "caution"), "ARMED AND DANGEROUS")
	}

	v.Identity = []Item{
		{Label: "Full Name", Value: d.String("name")},
		{Label: "Aliases / Nicknames", Value: d.String("alias", "aliases")},
		{Label: "Date of Birth", Value: d.String("dob")},
		{Label: "Place of Birth", Value: d.String("place_of_birth", "pob")},
		{Label: "Nationality", Value: d.String("nationality")},
		{Label: "Race / Ethnicity", Value: d.String("race_ethnicity", "race")},
	}
	v.Physical = []Item{
		{Label: "Hair", Value: d.String("hair", "hair_color")},
		{Label: "Eyes", Value: d.String("eyes", "eye_color")},
		{Label: "Complexion", Value: d.String("complexion")},
		{Label: "Build", Value: d.String("build")},
		{Label: "Scars & Marks", Value: v.ScarsMarks, FullWidth: true},
	}
	if tattoos := d.Strings("tattoos", "tattoo_descriptions"); len(tattoos) > 0 {
		v.Physical = append(v.Physical, Item{Label: "Tattoos", Value: strings.Join(tattoos, "; "), FullWidth: true})
	}

	v.Crime = []Item{
		{Label: "Crime Category", Value: d.String("crime_category", "category")},
		{Label: "Crime Date", Value: d.String("crime_date")},
		{Label: "Crime Location", Value: d.String("crime_location"), FullWidth: true},
	}
	v.NarrativeMD = orText(d.String("crime_narrative", "crime_description", "description"), "No narrative provided.")
	v.Narrative = template.HTML(b.markdown(v.NarrativeMD))

	if d.String("warrant_number") != "" || d.String("issuing_court", "warrant_court") != "" {
		v.Warrant = []Item{
			{Label: "Warrant Number", Value: d.String("warrant_number")},
			{Label: "Date Issued", Value: d.String("warrant_date")},
			{Label: "Issuing Court", Value: d.String("issuing_court", "warrant_court"), FullWidth: true},
		}
		if f := d.String("unlawful_flight_date"); f != "" {
			v.Warrant = append(v.Warrant, Item{Label: "Unlawful Flight Date", Value: f})
		}
	}
	v.Operational = orText(d.String("operational_warnings", "special_cautions"),
		"Exercise extreme caution. Do not attempt to apprehend alone.")

	ties := d.String("known_ties")
	if ties == "" {
		ties = strings.Join(d.Strings("ties_locations"), ", ")
	}
	v.LastSeen = []Item{
		{Label: "Last Seen Date", Value: d.String("last_seen_date")},
		{Label: "Last Seen Location", Value: d.String("last_seen_location")},
		{Label: "Known Ties / Locations", Value: ties, FullWidth: true},
	}
	return v
}

// MissingView 是寻人启事。
type MissingView struct {
	Base
	Name        string
	District    string
	MissingDate string
	MissingTime string
	Location    string
	Stats       []Item
	Physical    []Item
	Marks       string
	Belongings  string
	Guardian    string
	Reward      string
	QR          template.URL
	QRTarget    string
}

func (b *Builder) missing(base Base, l model.Lead, d model.Details) *MissingView {
	v := &MissingView{
		Base:        base,
		Name:        orText(d.String("name"), "UNKNOWN"),
		District:    "UNKNOWN DISTRICT",
		MissingDate: orText(d.String("missing_date"), "N/A"),
		MissingTime: orText(d.String("missing_time"), "Time N/A"),
		Location:    orText(d.String("missing_from", "location"), "Unknown Location"),
		Marks:       orText(d.String("identifying_marks", "scars_marks"), "None listed"),
		Belongings:  orText(d.String("items_carried", "belongings"), "None listed."),
	}
	if dist := d.String("district"); dist != "" {
		v.District = strings.ToUpper(dist) + " DISTRICT"
	}
	v.Stats = []Item{
		{Label: "Age", Value: orText(d.String("age"), "N/A")},
		{Label: "Sex", Value: orText(d.String("sex", "gender"), "N/A")},
		{Label: "Height", Value: orText(d.String("height"), "N/A")},
		{Label: "Build", Value: orText(d.String("build"), "N/A")},
	}
	v.Physical = []Item{
		{Label: "Complexion", Value: d.String("complexion")},
		{Label: "Hair Color", Value: d.String("hair", "hair_color")},
		{Label: "Eye Color", Value: d.String("eyes", "eye_color")},
		{Label: "Face Shape", Value: d.String("face_shape")},
		{Label: "Clothing (Last Seen)", Value: d.String("dress_description", "clothing"), FullWidth: true},
	}
	if g := d.String("guardian_name"); g != "" {
		v.Guardian = g
		if rel := d.String("relationship_to_guardian", "guardian_relation"); rel != "" {
			v.Guardian += " (" + rel + ")"
		}
		if c := d.String("guardian_contact"); c != "" {
			v.Guardian += " - " + c
		}
	}
	if l.HasActiveReward() {
		v.Reward = Reward(string(l.RewardAmount))
	} else if r := d.String("reward_amount"); r != "" {
		v.Reward = Reward(r)
	}
	v.QRTarget = b.canonicalURL("missing", base.Ref)
	v.QR = b.qrDataURI(v.QRTarget)
	return v
}

// AlertView 是公共安全警示。
type AlertView struct {
	Base
	Date         string
	Location     string
	Category     string
	Severity     string
	Instructions []string
	LinkURL      string
}

func (b *Builder) alert(base Base, l model.Lead, d model.Details) *AlertView {
	v := &AlertView{
		Base:         base,
		Location:     orText(d.String("location"), orText(l.Location, "Citywide")),
		Category:     d.String("category"),
		Severity:     d.String("severity"),
		Instructions: SplitInstructions(d.String("instructions")),
	}
	if v.Title == "" {
		v.Title = "ALERT: " + orText(d.String("title"), "Safety Warning")
	}
	if v.Description == "" {
		v.Description = d.String("description")
	}
	if !l.CreatedAt.IsZero() {
		v.Date = l.CreatedAt.Format("02 Jan 2006")
	}
	if link := d.String("link_url"); strings.HasPrefix(link, "https://") || strings.HasPrefix(link, "http://") {
		v.LinkURL = link
	}
	return v
}

// SplitInstructions 按句点切分，去空白，丢弃空句。
func SplitInstructions(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ".") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IntelView 是一般情报 / 协查通告。
type IntelView struct {
	Base
	PoliceRequest  bool // INFO_SEEKING
	Category       string
	DateText       string
	TimeText       string
	Location       string
	Classification string
	PriorityText   string
	Reward         string
	QR             template.URL
	QRTarget       string
	Narrative      template.HTML
	NarrativeMD    string
	Suspect        string
	Vehicle        string
	SeekingInfo    string
	Contact        string
	Source         string
	AnalystNote    string
}

func (b *Builder) intel(base Base, l model.Lead, d model.Details) *IntelView {
	v := &IntelView{
		Base:          base,
		PoliceRequest: base.Status == string(model.StatusInfoSeeking),
		Category:      orText(d.String("category"), "General Intel"),
		Location:      orText(d.String("location", "incident_location"), orText(l.Location, "Location Not Specified")),
		PriorityText:  orText(base.Priority, "NORMAL") + " PRIORITY",
		Suspect:       d.String("suspect_details", "subject_description", "subject_name"),
		Vehicle:       d.String("vehicle_details"),
		SeekingInfo:   d.String("seeking_description"),
		Source:        d.String("source"),
		AnalystNote:   "Pending final review by sector supervisor.",
	}
	if base.Ref == "" {
		v.Ref = "UNKNOWN"
	}
	v.Classification = "CONFIDENTIAL / OFFICIAL USE ONLY"
	if l.IsPublic {
		v.Classification = "PUBLIC RECORD"
	}

	v.DateText = d.String("incident_date")
	if v.DateText == "" && !l.CreatedAt.IsZero() {
		v.DateText = l.CreatedAt.Format("02 Jan 2006")
	}
	v.TimeText = d.String("incident_time")
	if v.TimeText == "" && !l.CreatedAt.IsZero() {
		v.TimeText = l.CreatedAt.Format("15:04")
	}

	if c := d.String("contact_person"); c != "" {
		v.Contact = c
		if n := d.String("contact_number"); n != "" {
			v.Contact += " · " + n
		}
	}

	switch {
	case strings.TrimSpace(string(l.RewardAmount)) != "":
		v.Reward = Reward(string(l.RewardAmount))
	case d.String("reward_amount") != "":
		v.Reward = d.String("reward_amount")
	}

	v.NarrativeMD = orText(d.String("narrative", "description", "incident_description"), orText(l.Description, "No narrative provided."))
	v.Narrative = template.HTML(b.markdown(v.NarrativeMD))

	v.QRTarget = b.canonicalURL("intel", v.Ref)
	v.QR = b.qrDataURI(v.QRTarget)
	return v
}
