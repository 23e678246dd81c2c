package ai

import "google.golang.org/genai"

const contactPrompt = `You extract business contact details from website text.
Website: %s

Return only contact details that belong to the business itself. Ignore placeholder
addresses, developer or tracking emails, and numbers that are clearly not phone numbers.
Give a confidence between 0 and 1 for the emails and for the phones.

Website text:
%s`

const businessPrompt = `Decide whether this website belongs to a real business that sells products or services.
Social networks, marketplaces, directories, news sites and personal blogs are not businesses.
Website: %s

Return the business name and a short business type when it is a business, and a confidence
between 0 and 1.

Website text:
%s`

var contactSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"emails": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"phones": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"confidence": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"emails": {Type: genai.TypeNumber},
				"phones": {Type: genai.TypeNumber},
			},
			Required: []string{"emails", "phones"},
		},
		"reasoning": {Type: genai.TypeString},
	},
	Required: []string{"emails", "phones", "confidence"},
}

var businessSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"isBusiness":   {Type: genai.TypeBoolean},
		"businessName": {Type: genai.TypeString},
		"businessType": {Type: genai.TypeString},
		"confidence":   {Type: genai.TypeNumber},
		"reasoning":    {Type: genai.TypeString},
	},
	Required: []string{"isBusiness", "confidence"},
}
