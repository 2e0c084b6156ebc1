package schema

import "github.com/liliang-cn/docflow/internal/domain"

var catalog = []Schema{
	{
		DocumentType: domain.DocumentTypeBaseContract,
		DisplayName:  "Base Contract",
		Fields: []Field{
			{Name: "client_name", Description: "Full name of the client", Question: "What is the client's full name?"},
			{Name: "client_tax_id", Description: "Client tax identifier, if mentioned", Question: "Do you have the client's tax ID?"},
			{Name: "name", Description: "Name of the event, e.g. \"Wedding of Maria and Juan\"", Question: "What is the name of the event? (e.g. \"Wedding of Maria and Juan\")"},
			{Name: "type", Description: "Kind of event: wedding, quinceañera, corporate, ...", Question: "What type of event is it? (wedding, quinceañera, corporate, ...)"},
			{Name: "date", Description: "Event date in DD/MM/YYYY format", Question: "What is the date of the event? (DD/MM/YYYY)"},
			{Name: "time", Description: "Event start time in HH:MM format", Question: "At what time does the event start?"},
			{Name: "location", Description: "Venue or place where the event happens", Question: "Where will the event take place?"},
			{Name: "contract_date", Description: "Date the contract is signed", Question: "On what date will the contract be signed?"},
		},
		CriticalFields: []string{"name", "date", "location", "type"},
	},
	{
		DocumentType: domain.DocumentTypeSetupSpec,
		DisplayName:  "Annex A - Setup Specifications",
		Fields: []Field{
			{Name: "client_name", Description: "Name of the client", Question: "What is the client's full name?"},
			{Name: "date", Description: "Event date", Question: "What is the date of the event? (DD/MM/YYYY)"},
			{Name: "hall_length", Description: "Hall length in meters", Question: "How many meters long is the hall?"},
			{Name: "hall_width", Description: "Hall width in meters", Question: "How many meters wide is the hall?"},
			{Name: "hall_height", Description: "Hall height in meters", Question: "How high is the hall?"},
			{Name: "centerpiece", Description: "Centerpiece description", Question: "What should the centerpieces look like?"},
			{Name: "table_format", Description: "Table format (round, rectangular, ...)", Question: "Which table format do you prefer? (round, rectangular, ...)"},
			{Name: "chair_count", Description: "Number of chairs", Question: "How many chairs are needed?"},
			{Name: "chair_type", Description: "Type of chairs"},
			{Name: "decorative_elements", Description: "Decorative elements and their placement"},
			{Name: "has_bar", Description: "Is there a bar? (yes/no)"},
			{Name: "has_dance_floor", Description: "Is there a dance floor? (yes/no)"},
		},
		CriticalFields: []string{"client_name", "date", "hall_length", "hall_width"},
	},
	{
		DocumentType: domain.DocumentTypeRenderThemes,
		DisplayName:  "Annex B - Renders and Themes",
		Fields: []Field{
			{Name: "client_name", Description: "Name of the client", Question: "What is the client's full name?"},
			{Name: "name", Description: "Name of the event", Question: "What is the name of the event?"},
			{Name: "date", Description: "Event date", Question: "What is the date of the event? (DD/MM/YYYY)"},
			{Name: "representative", Description: "Assigned studio representative", Question: "Who is the assigned studio representative?"},
			{Name: "theme_1", Description: "Primary render theme or style", Question: "What theme or visual style do you want for the renders?"},
			{Name: "theme_2", Description: "Secondary render theme", Question: "Is there a secondary or alternative theme?"},
			{Name: "confirmed_1", Description: "Confirmation status of theme 1"},
			{Name: "confirmed_2", Description: "Confirmation status of theme 2"},
		},
		CriticalFields: []string{"client_name", "name", "theme_1"},
	},
	{
		DocumentType: domain.DocumentTypeChangeControl,
		DisplayName:  "Annex C - Change Control",
		Fields: []Field{
			{Name: "name", Description: "Name of the event", Question: "What is the name of the event?"},
			{Name: "round", Description: "Revision round number", Question: "Which revision round is this?"},
			{Name: "total_changes", Description: "Total changes requested this round", Question: "How many changes are requested in total this round?"},
			{Name: "change_1", Description: "First requested change", Question: "What is the first change you want?"},
			{Name: "change_2", Description: "Second requested change"},
			{Name: "change_3", Description: "Third requested change"},
			{Name: "client_accepts", Description: "Does the client accept the round? (yes/no)"},
		},
		CriticalFields: []string{"name", "round", "change_1"},
	},
	{
		DocumentType: domain.DocumentTypeFinalDelivery,
		DisplayName:  "Annex D - Final Delivery",
		Fields: []Field{
			{Name: "name", Description: "Name of the event", Question: "What is the name of the event?"},
			{Name: "package", Description: "Contracted package", Question: "Which package was contracted?"},
			{Name: "delivery_date", Description: "Final delivery date", Question: "When is the final delivery due?"},
			{Name: "renders_delivered", Description: "Number of renders delivered", Question: "How many renders will be delivered?"},
			{Name: "total_cost", Description: "Total cost of the project", Question: "What is the total cost of the project?"},
			{Name: "payment_authorized", Description: "Does the client authorize the final payment? (yes/no)", Question: "Does the client authorize the final payment?"},
			{Name: "option", Description: "Selected delivery option (A, B, C or D)"},
		},
		CriticalFields: []string{"name", "delivery_date", "renders_delivered"},
	},
}
