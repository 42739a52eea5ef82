package bot

import "proposalbot/internal/llm"

// proposalItem is one location's terms as extracted by the model.
type proposalItem struct {
	Location      string   `json:"location"`
	StartDate     string   `json:"start_date"`
	Durations     []string `json:"durations"`
	NetRates      []string `json:"net_rates"`
	Spots         int      `json:"spots"`
	ProductionFee string   `json:"production_fee"`
}

type separateArgs struct {
	ClientName string         `json:"client_name"`
	Proposals  []proposalItem `json:"proposals"`
}

type combinedArgs struct {
	ClientName      string         `json:"client_name"`
	Proposals       []proposalItem `json:"proposals"`
	CombinedNetRate string         `json:"combined_net_rate"`
}

type addLocationArgs struct {
	LocationName string `json:"location_name"`
	Series       string `json:"series"`
	Height       string `json:"height"`
	Width        string `json:"width"`
	DisplayType  string `json:"display_type"`
	SOV          string `json:"sov"`
	UploadFee    string `json:"upload_fee"`
	Faces        int    `json:"faces"`
	SpotDuration int    `json:"spot_duration"`
	LoopDuration int    `json:"loop_duration"`
	Replace      bool   `json:"replace"`
}

var proposalItemSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"location":       map[string]interface{}{"type": "string", "description": "Location name as the client said it"},
		"start_date":     map[string]interface{}{"type": "string", "description": "Campaign start date, verbatim"},
		"durations":      map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "Duration options, e.g. '2 Weeks'"},
		"net_rates":      map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "One net rate per duration, e.g. 'AED 1,250,000'"},
		"spots":          map[string]interface{}{"type": "integer", "description": "Number of spots, default 1"},
		"production_fee": map[string]interface{}{"type": "string", "description": "Production fee override for static locations"},
	},
	"required": []string{"location", "start_date", "durations", "net_rates"},
}

func toolDefs() []llm.Tool {
	return []llm.Tool{
		{Type: "function", Function: llm.ToolFunction{
			Name:        "get_separate_proposals",
			Description: "Generate one financial proposal per location. Each location gets its own deck with its own rates.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"client_name": map[string]interface{}{"type": "string"},
					"proposals":   map[string]interface{}{"type": "array", "items": proposalItemSchema},
				},
				"required": []string{"client_name", "proposals"},
			},
		}},
		{Type: "function", Function: llm.ToolFunction{
			Name:        "get_combined_proposal",
			Description: "Generate a combined package: at least two locations priced together with one combined net rate.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"client_name":       map[string]interface{}{"type": "string"},
					"proposals":         map[string]interface{}{"type": "array", "items": proposalItemSchema},
					"combined_net_rate": map[string]interface{}{"type": "string", "description": "One net rate for the whole package"},
				},
				"required": []string{"client_name", "proposals", "combined_net_rate"},
			},
		}},
		{Type: "function", Function: llm.ToolFunction{
			Name:        "list_locations",
			Description: "List every location the bot has a template for.",
			Parameters:  map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
		}},
		{Type: "function", Function: llm.ToolFunction{
			Name:        "refresh_templates",
			Description: "Rescan the template directory and reload location metadata.",
			Parameters:  map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
		}},
		{Type: "function", Function: llm.ToolFunction{
			Name:        "add_location",
			Description: "Register a new location. The user must upload the template .pptx right after calling this. Admin only.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"location_name": map[string]interface{}{"type": "string"},
					"series":        map[string]interface{}{"type": "string"},
					"height":        map[string]interface{}{"type": "string", "description": "e.g. '14m'"},
					"width":         map[string]interface{}{"type": "string", "description": "e.g. '48m'"},
					"display_type":  map[string]interface{}{"type": "string", "enum": []string{"digital", "static"}},
					"sov":           map[string]interface{}{"type": "string", "description": "Base share of voice percentage"},
					"upload_fee":    map[string]interface{}{"type": "string"},
					"faces":         map[string]interface{}{"type": "integer"},
					"spot_duration": map[string]interface{}{"type": "integer"},
					"loop_duration": map[string]interface{}{"type": "integer"},
					"replace":       map[string]interface{}{"type": "boolean", "description": "Set only after the user confirms replacing an existing location"},
				},
				"required": []string{"location_name"},
			},
		}},
		{Type: "function", Function: llm.ToolFunction{
			Name:        "export_log",
			Description: "Export the proposal generation log as an xlsx workbook. Admin only.",
			Parameters:  map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
		}},
		{Type: "function", Function: llm.ToolFunction{
			Name:        "log_summary",
			Description: "Summarize the proposal log: totals by package type and the most recent entries. Admin only.",
			Parameters:  map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
		}},
	}
}
