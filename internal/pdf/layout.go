package pdf

import "acquisition-pdf-pipeline/internal/domain"

// fieldSpec is one label/value row in the rendered document. Fallback is
// what an absent optional field renders as; required fields never fall
// through to it because rendering validates them first.
type fieldSpec struct {
	Label    string
	Key      string
	Fallback string
}

type layout struct {
	Title      string
	FilePrefix string
	Fields     []fieldSpec
	Narratives []fieldSpec
}

var currencyKeys = map[string]bool{
	domain.FieldPurchasePrice:    true,
	domain.FieldRevenue:          true,
	domain.FieldAvgSDE:           true,
	domain.FieldTotalAdjustments: true,
}

var narrativeSections = []fieldSpec{
	{Label: "Search Narrative Connection", Key: "search_narrative_relation", Fallback: "Not provided"},
	{Label: "Deal Interest", Key: "deal_likes_dislikes", Fallback: "Not provided"},
	{Label: "Questions/Concerns", Key: "deal_questions_concerns", Fallback: "Not provided"},
}

var loiFields = []fieldSpec{
	{Label: "Name", Key: domain.FieldFullName, Fallback: "Not provided"},
	{Label: "Industry", Key: domain.FieldIndustry, Fallback: "Not specified"},
	{Label: "Location", Key: domain.FieldLocation, Fallback: "Not specified"},
	{Label: "Purchase Price", Key: domain.FieldPurchasePrice, Fallback: "Not specified"},
	{Label: "Revenue", Key: domain.FieldRevenue, Fallback: "Not specified"},
	{Label: "Avg SDE", Key: domain.FieldAvgSDE, Fallback: "Not specified"},
	{Label: "Seller Role", Key: domain.FieldSellerRole, Fallback: "Not specified"},
	{Label: "Reason for Selling", Key: "reason_for_selling", Fallback: "Not provided"},
	{Label: "Owner Involvement", Key: "owner_involvement", Fallback: "Not provided"},
	{Label: "Customer Concentration Risk", Key: "customer_concentration_risk", Fallback: "Not provided"},
	{Label: "Competition", Key: "deal_competitiveness", Fallback: "Not provided"},
	{Label: "Seller Note", Key: "seller_note_openness", Fallback: "Not provided"},
}

var cimFields = []fieldSpec{
	{Label: "Name", Key: domain.FieldFullName, Fallback: "Not provided"},
	{Label: "Industry", Key: domain.FieldIndustry, Fallback: "Not specified"},
	{Label: "Location", Key: domain.FieldLocation, Fallback: "Not specified"},
	{Label: "Purchase Price", Key: domain.FieldPurchasePrice, Fallback: "Not specified"},
	{Label: "Revenue", Key: domain.FieldRevenue, Fallback: "Not specified"},
	{Label: "Avg SDE", Key: domain.FieldAvgSDE, Fallback: "Not specified"},
	{Label: "Total $ Adjustments", Key: domain.FieldTotalAdjustments, Fallback: "Not specified"},
	{Label: "Seller Role", Key: domain.FieldSellerRole, Fallback: "Not specified"},
	{Label: "Reason for Selling", Key: "reason_for_selling", Fallback: "Not provided"},
	{Label: "Owner Involvement", Key: "owner_involvement", Fallback: "Not provided"},
	{Label: "GM in Place", Key: "gm_in_place", Fallback: "Not specified"},
	{Label: "Tenure of GM", Key: "tenure_of_gm", Fallback: "Not specified"},
	{Label: "Number of Employees", Key: "number_of_employees", Fallback: "Not specified"},
}

// Legacy variant from the first deployment of this service.
var lolFields = []fieldSpec{
	{Label: "Name", Key: domain.FieldFullName, Fallback: "Not provided"},
	{Label: "Summoner Name", Key: "summoner_name", Fallback: "Not provided"},
	{Label: "Region", Key: "region", Fallback: "Not specified"},
	{Label: "Rank", Key: "rank", Fallback: "Not specified"},
	{Label: "Main Role", Key: "main_role", Fallback: "Not specified"},
	{Label: "Champion Pool", Key: "champion_pool", Fallback: "Not provided"},
	{Label: "Hours per Week", Key: "hours_per_week", Fallback: "Not specified"},
	{Label: "Competitive Goals", Key: "competitive_goals", Fallback: "Not provided"},
}

// layoutFor is the single dispatch point over the form-type discriminant.
func layoutFor(formType domain.FormType) (layout, bool) {
	switch formType {
	case domain.FormTypeLOI:
		return layout{
			Title:      "LOI Questions Overview",
			FilePrefix: "loi_overview",
			Fields:     loiFields,
			Narratives: narrativeSections,
		}, true
	case domain.FormTypeCIM:
		return layout{
			Title:      "CIM Questions Overview",
			FilePrefix: "cim_overview",
			Fields:     cimFields,
			Narratives: narrativeSections,
		}, true
	case domain.FormTypeCIMTraining:
		return layout{
			Title:      "CIM Training Overview",
			FilePrefix: "cim_training_overview",
			Fields:     cimFields,
			Narratives: narrativeSections,
		}, true
	case domain.FormTypeLoL:
		return layout{
			Title:      "Player Questionnaire Overview",
			FilePrefix: "player_overview",
			Fields:     lolFields,
		}, true
	}
	return layout{}, false
}
