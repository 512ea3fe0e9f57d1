package prompt

import (
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
)

// StrictAdditives are called out by name so the model does not go easy on them.
var StrictAdditives = []string{"Red 40", "Aspartame", "High Fructose Corn Syrup"}

// schema is repeated verbatim in every system prompt. The validator checks
// the same rules independently; the model is not trusted to follow them.
const schema = `{
  "productName": "Name",
  "healthScore": 0-100,
  "verdict": "Safe" | "Caution" | "Avoid",
  "summary": "1-sentence personalized summary based on user BMI and allergies.",
  "composition": { "safe": 0, "questionable": 0, "harmful": 0 },
  "nutrition": { "calories": 0, "protein": 0, "carbs": 0, "fats": 0, "sugar": 0 },
  "ingredients": [{
    "name": "string",
    "risk": "Low" | "Medium" | "High",
    "impact": "Brief scientific impact",
    "tags": ["Vegan", "Preservative"],
    "alternative": "Healthier swap" | null
  }],
  "allergyAlerts": ["allergens from the user's list found in this item"]
}`

// GetSystemPrompt embeds the subject, the user's context and the exact output schema.
func GetSystemPrompt(subject string, uc domain.UserContext) string {
	var b strings.Builder
	b.WriteString("You are PurePlate AI, an advanced food toxicity and nutritional analyzer.\n")
	fmt.Fprintf(&b, "Analyze: %q.\n\n", subject)

	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- Allergies: %s.\n", allergies(uc))
	value, category := bmi(uc)
	fmt.Fprintf(&b, "- BMI: %s (%s).\n\n", value, category)

	b.WriteString("Return exactly this JSON structure, one JSON object only, no markdown and no commentary:\n")
	b.WriteString(schema)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- healthScore is an integer from 0 to 100.\n")
	b.WriteString("- verdict is exactly one of Safe, Caution, Avoid.\n")
	b.WriteString("- every ingredient has a name and a risk of exactly Low, Medium or High.\n")
	b.WriteString("- composition values are integer percentages that add up to 100.\n")
	b.WriteString("- nutrition values are per typical serving; use 0 when unknown.\n")
	fmt.Fprintf(&b, "- Be strict about chemicals like %s.\n", strings.Join(StrictAdditives, ", "))
	b.WriteString("- If it's a single chemical search, still provide the composition percentages for that chemical's general health profile.\n")
	b.WriteString("- Use friendly, simple language.")
	return b.String()
}

// GetUserPrompt builds the user message around the query.
func GetUserPrompt(query string) string {
	return fmt.Sprintf("Analyze the food item: %s", query)
}

// GetLabelPrompt is the user message sent alongside a label photo.
func GetLabelPrompt() string {
	return "Analyze the food label in the attached photo and respond with the JSON per schema."
}

func allergies(uc domain.UserContext) string {
	if len(uc.Allergies) == 0 {
		return "None"
	}
	return strings.Join(uc.Allergies, ", ")
}

func bmi(uc domain.UserContext) (string, string) {
	if uc.BMI == nil || uc.BMI.Value <= 0 {
		return "Unknown", "N/A"
	}
	category := string(uc.BMI.Category)
	if category == "" {
		category = "N/A"
	}
	return fmt.Sprintf("%.1f", uc.BMI.Value), category
}

// Builder is the context builder handed to the orchestrator. It has no state.
type Builder struct{}

func NewBuilder() Builder { return Builder{} }

func (Builder) Build(query string, uc domain.UserContext) domain.Instruction {
	return domain.Instruction{
		System: GetSystemPrompt(query, uc),
		User:   GetUserPrompt(query),
	}
}

func (Builder) BuildLabel(image []byte, mimeType string, uc domain.UserContext) domain.Instruction {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return domain.Instruction{
		System:    GetSystemPrompt("the food label in the attached photo", uc),
		User:      GetLabelPrompt(),
		Image:     image,
		ImageMIME: mimeType,
	}
}
